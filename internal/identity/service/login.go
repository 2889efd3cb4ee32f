package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"campusplace/internal/audit"
	"campusplace/internal/identity/models"
	id "campusplace/pkg/domain"
	dErrors "campusplace/pkg/domain-errors"
	"campusplace/pkg/validation"
)

// Login authenticates one credential pair and issues a token pair.
//
// The order of the gates is load-bearing: candidate selection, then the lock
// gate, then tenant/account status, then the password check. Status gates run
// before the password so a rejection does not reveal, via timing, whether the
// password would have matched.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.SessionResult, error) {
	ctx, span := tracer.Start(ctx, "identity.login")
	defer span.End()

	req.Normalize()
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	if err := s.checkCaptcha(req); err != nil {
		return nil, err
	}
	now := s.now()

	candidates, err := s.principals.FindByIdentifier(ctx, req.Identifier)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up principal")
	}

	p, err := s.selectCandidate(candidates, req.TenantID)
	if err != nil {
		s.authFailure(ctx, nil, reasonOf(err))
		return nil, err
	}

	// Lock gate. While the window is open nothing is written to the store;
	// an expired window resets the counter before the attempt proceeds.
	if p.IsLocked(now) {
		s.authFailure(ctx, p, "account_locked")
		return nil, lockedError(p.LockRemaining(now))
	}
	if p.LockedUntil != nil {
		if err := s.principals.ClearLock(ctx, p.ID, now); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear expired lock")
		}
		p.FailedAttempts = 0
		p.LockedUntil = nil
	}

	// Status gates, both before the password check.
	if p.Role != models.RoleSuperadmin {
		tenant, err := s.tenants.FindByID(ctx, p.TenantID)
		if err != nil {
			s.authFailure(ctx, p, "tenant_lookup_failed")
			return nil, dErrors.New(dErrors.CodeTenantInactive, "college is not active")
		}
		if !tenant.IsActive() {
			s.authFailure(ctx, p, "tenant_inactive")
			return nil, dErrors.New(dErrors.CodeTenantInactive, "college is not active")
		}
	}
	if !p.IsActive() {
		s.authFailure(ctx, p, "account_inactive")
		return nil, dErrors.New(dErrors.CodeAccountInactive, "account is not active")
	}

	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password)) != nil {
		attempts, lockedUntil, recErr := s.principals.RecordFailedAttempt(ctx, p.ID, now)
		if recErr != nil {
			return nil, dErrors.Wrap(recErr, dErrors.CodeInternal, "failed to record login attempt")
		}
		if lockedUntil != nil && now.Before(*lockedUntil) {
			s.incrementAccountLockouts()
			s.authFailure(ctx, p, "account_locked", "failed_attempts", attempts)
			return nil, lockedError(lockedUntil.Sub(now))
		}
		// Generic message; never reveal which field was wrong or how many
		// attempts remain.
		s.authFailure(ctx, p, "invalid_credentials")
		return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid credentials")
	}

	accessToken, err := s.tokens.GenerateAccessToken(p.ID, string(p.Role), p.TenantID, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate access token")
	}
	refreshToken, handle, err := s.tokens.GenerateRefreshToken(p.ID, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate refresh token")
	}

	// Installing the new handle also resets the lockout counter and replaces
	// any previously live session for this principal.
	if err := s.principals.RecordLogin(ctx, p.ID, handle, now); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist login")
	}

	s.recordAuthEntry(ctx, p, audit.ActionLogin, 200, "")
	s.incrementLoginSuccesses()
	s.logger.InfoContext(ctx, "login succeeded",
		"principal_id", p.ID.String(),
		"role", p.Role,
		"log_type", "audit",
	)

	return s.sessionResult(p, accessToken, refreshToken), nil
}

// selectCandidate picks the principal a credential pair refers to. A
// superadmin match always wins and ignores the tenant hint; otherwise the
// hint narrows the field, and a still-ambiguous identifier is rejected
// rather than silently resolved.
func (s *Service) selectCandidate(candidates []*models.Principal, tenantHint string) (*models.Principal, error) {
	for _, c := range candidates {
		if c.Role == models.RoleSuperadmin {
			return c, nil
		}
	}

	matched := candidates
	if tenantHint != "" {
		tenantID, err := id.ParseTenantID(tenantHint)
		if err != nil {
			return nil, err
		}
		matched = nil
		for _, c := range candidates {
			if c.TenantID == tenantID {
				matched = append(matched, c)
			}
		}
	}

	switch len(matched) {
	case 0:
		return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid credentials")
	case 1:
		return matched[0], nil
	default:
		return nil, dErrors.New(dErrors.CodeAmbiguousTenant, "identifier matches accounts in multiple colleges, specify tenant_id")
	}
}

func lockedError(remaining time.Duration) error {
	seconds := int(remaining.Round(time.Second).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return dErrors.New(dErrors.CodeAccountLocked,
		fmt.Sprintf("account locked, try again in %d seconds", seconds))
}

func reasonOf(err error) string {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeAmbiguousTenant:
		return "ambiguous_tenant"
	case dErrors.CodeInvalidInput:
		return "invalid_tenant_hint"
	default:
		return "unknown_identifier"
	}
}
