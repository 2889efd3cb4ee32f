package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"campusplace/internal/audit"
	"campusplace/internal/identity/models"
	principalStore "campusplace/internal/identity/store/principal"
	id "campusplace/pkg/domain"
	dErrors "campusplace/pkg/domain-errors"
	"campusplace/pkg/validation"
)

// ChangePassword replaces an authenticated principal's password. The current
// password must verify first, and the stored refresh handle is cleared with
// the update, so every live session has to log in again.
func (s *Service) ChangePassword(ctx context.Context, principalID id.PrincipalID, req *models.ChangePasswordRequest) error {
	ctx, span := tracer.Start(ctx, "identity.change_password")
	defer span.End()

	if err := validation.Validate(req); err != nil {
		return err
	}

	p, err := s.principals.FindByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, principalStore.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "principal not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up principal")
	}

	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.CurrentPassword)) != nil {
		s.authFailure(ctx, p, "invalid_current_password")
		return dErrors.New(dErrors.CodeInvalidCredentials, "current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	if err := s.principals.UpdatePassword(ctx, principalID, string(hash), s.now()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
	}

	s.recordAuthEntry(ctx, p, audit.ActionPasswordChange, 200, "")
	s.logger.InfoContext(ctx, "password changed",
		"principal_id", principalID.String(),
		"log_type", "audit",
	)
	return nil
}

// RequestPasswordReset starts the reset flow. It always returns nil for an
// unknown email so account existence is not revealed; when the account
// exists, a single-use token valid for resetTokenTTL is returned for
// delivery out of band.
func (s *Service) RequestPasswordReset(ctx context.Context, req *models.ResetRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "identity.request_password_reset")
	defer span.End()

	req.Normalize()
	if err := validation.Validate(req); err != nil {
		return "", err
	}

	p, err := s.principals.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, principalStore.ErrNotFound) {
			s.logger.InfoContext(ctx, "password reset requested for unknown email", "log_type", "standard")
			return "", nil
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up principal")
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate reset token")
	}
	token := hex.EncodeToString(buf)

	// Only a digest of the token is stored; a read of the nonce store alone
	// cannot redeem a reset.
	s.nonces.Put(resetKey(token), p.ID.String(), resetTokenTTL)

	s.logger.InfoContext(ctx, "password reset requested",
		"principal_id", p.ID.String(),
		"log_type", "audit",
	)
	return token, nil
}

// ConfirmPasswordReset completes the flow. The token is consumed on first
// presentation, valid or not for the final update, and cannot be replayed.
func (s *Service) ConfirmPasswordReset(ctx context.Context, req *models.ResetConfirmRequest) error {
	ctx, span := tracer.Start(ctx, "identity.confirm_password_reset")
	defer span.End()

	if err := validation.Validate(req); err != nil {
		return err
	}

	stored, ok := s.nonces.Consume(resetKey(req.Nonce))
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "reset token is invalid or expired")
	}
	principalID, err := id.ParsePrincipalID(stored)
	if err != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "reset token is invalid or expired")
	}

	p, err := s.principals.FindByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, principalStore.ErrNotFound) {
			return dErrors.New(dErrors.CodeUnauthorized, "reset token is invalid or expired")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up principal")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	if err := s.principals.UpdatePassword(ctx, principalID, string(hash), s.now()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
	}

	s.recordAuthEntry(ctx, p, audit.ActionPasswordReset, 200, "")
	s.logger.InfoContext(ctx, "password reset completed",
		"principal_id", principalID.String(),
		"log_type", "audit",
	)
	return nil
}

func resetKey(token string) string {
	digest := sha256.Sum256([]byte(token))
	return "reset:" + hex.EncodeToString(digest[:])
}
