package service

import (
	"context"
	"errors"

	"campusplace/internal/identity/models"
	principalStore "campusplace/internal/identity/store/principal"
	jwttoken "campusplace/internal/jwt_token"
	id "campusplace/pkg/domain"
	dErrors "campusplace/pkg/domain-errors"
	"campusplace/pkg/validation"
)

// Refresh rotates a live refresh token into a new token pair. The presented
// token must hash to the handle currently stored for the principal; the
// compare and the swap to the new handle happen as one store operation, so
// two concurrent calls with the same token cannot both win.
func (s *Service) Refresh(ctx context.Context, req *models.RefreshRequest) (*models.SessionResult, error) {
	ctx, span := tracer.Start(ctx, "identity.refresh")
	defer span.End()

	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	now := s.now()

	claims, err := s.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		s.authFailure(ctx, nil, "invalid_refresh_token")
		return nil, err
	}
	principalID, err := id.ParsePrincipalID(claims.PrincipalID)
	if err != nil {
		s.authFailure(ctx, nil, "invalid_refresh_subject")
		return nil, dErrors.New(dErrors.CodeInvalidRefresh, "invalid refresh token")
	}

	p, err := s.principals.FindByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, principalStore.ErrNotFound) {
			s.authFailure(ctx, nil, "refresh_principal_missing")
			return nil, dErrors.New(dErrors.CodeInvalidRefresh, "invalid refresh token")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up principal")
	}

	// Same status gates as login; a deactivated account or college cannot
	// keep a session alive through rotation.
	if p.Role != models.RoleSuperadmin {
		tenant, err := s.tenants.FindByID(ctx, p.TenantID)
		if err != nil || !tenant.IsActive() {
			s.authFailure(ctx, p, "tenant_inactive")
			return nil, dErrors.New(dErrors.CodeTenantInactive, "college is not active")
		}
	}
	if !p.IsActive() {
		s.authFailure(ctx, p, "account_inactive")
		return nil, dErrors.New(dErrors.CodeAccountInactive, "account is not active")
	}

	newRefreshToken, newHandle, err := s.tokens.GenerateRefreshToken(p.ID, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate refresh token")
	}

	presented := jwttoken.HandleOf(req.RefreshToken)
	if err := s.principals.RotateRefreshHandle(ctx, p.ID, presented, newHandle, now); err != nil {
		if errors.Is(err, principalStore.ErrStaleRefreshHandle) {
			s.incrementStaleRefreshes()
			s.authFailure(ctx, p, "stale_refresh_handle")
			return nil, dErrors.New(dErrors.CodeInvalidRefresh, "refresh token is no longer valid")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to rotate refresh handle")
	}

	accessToken, err := s.tokens.GenerateAccessToken(p.ID, string(p.Role), p.TenantID, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate access token")
	}

	s.incrementTokenRefreshes()
	s.logger.InfoContext(ctx, "refresh rotated",
		"principal_id", p.ID.String(),
		"log_type", "audit",
	)

	return s.sessionResult(p, accessToken, newRefreshToken), nil
}
