package service

import (
	"context"
	"errors"

	"campusplace/internal/audit"
	principalStore "campusplace/internal/identity/store/principal"
	id "campusplace/pkg/domain"
	dErrors "campusplace/pkg/domain-errors"
)

// Logout clears the stored refresh handle so the live refresh token can no
// longer rotate. Idempotent: logging out twice, or with no live session, is
// not an error. The access token stays valid until it expires on its own.
func (s *Service) Logout(ctx context.Context, principalID id.PrincipalID) error {
	p, err := s.principals.FindByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, principalStore.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "principal not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up principal")
	}

	if err := s.principals.ClearRefreshHandle(ctx, principalID, s.now()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear refresh handle")
	}

	s.recordAuthEntry(ctx, p, audit.ActionLogout, 200, "")
	s.logger.InfoContext(ctx, "logout",
		"principal_id", principalID.String(),
		"log_type", "audit",
	)
	return nil
}
