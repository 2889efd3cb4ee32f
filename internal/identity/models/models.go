package models

import (
	"time"

	id "campusplace/pkg/domain"
	dErrors "campusplace/pkg/domain-errors"
)

// This file contains pure domain models for identity: entities that should
// not depend on transport or HTTP-specific concerns.

const (
	// MaxFailedAttempts is the number of consecutive failed password checks
	// after which a principal is locked out.
	MaxFailedAttempts = 5

	// LockDuration is how long a lockout lasts. Expiry is evaluated lazily on
	// the next login attempt, not by a background sweep.
	LockDuration = 15 * time.Minute
)

// Principal represents an authenticated actor: superadmin, college admin,
// department moderator, or student.
//
// Invariants:
//   - Role is immutable after creation.
//   - TenantID is nil if and only if Role is superadmin.
//   - Department is required for moderators and students.
//   - FailedAttempts >= MaxFailedAttempts implies LockedUntil is set.
type Principal struct {
	ID         id.PrincipalID
	Username   string
	Email      string
	FullName   string
	Role       Role
	TenantID   id.TenantID // nil for superadmin
	Department string
	Status     PrincipalStatus

	// Credential state, mutated only by the identity service.
	PasswordHash   string
	FailedAttempts int
	LockedUntil    *time.Time

	// RefreshHandle is the SHA-256 hash of the currently live refresh token.
	// At most one live value per principal: issuing a new session replaces it,
	// which invalidates any previously issued refresh token.
	RefreshHandle string

	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Principal) IsActive() bool {
	return p.Status == StatusActive
}

// IsLocked reports whether the lockout window is still open at the given
// time. A past LockedUntil means the principal is treated as unlocked with a
// zero counter (lazy expiry).
func (p *Principal) IsLocked(now time.Time) bool {
	return p.LockedUntil != nil && now.Before(*p.LockedUntil)
}

// LockRemaining returns how much of the lockout window is left. Zero when the
// principal is not locked.
func (p *Principal) LockRemaining(now time.Time) time.Duration {
	if !p.IsLocked(now) {
		return 0
	}
	return p.LockedUntil.Sub(now)
}

// Deactivate marks the principal inactive. Principals are never hard-deleted
// by this core.
func (p *Principal) Deactivate(now time.Time) {
	p.Status = StatusInactive
	p.UpdatedAt = now
}

// NewPrincipal constructs a Principal and enforces role/tenant invariants.
func NewPrincipal(principalID id.PrincipalID, username, email string, role Role, tenantID id.TenantID, department string, now time.Time) (*Principal, error) {
	if username == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "principal username cannot be empty")
	}
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "principal email cannot be empty")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid role: "+string(role))
	}
	if role == RoleSuperadmin && !tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "superadmin cannot be scoped to a tenant")
	}
	if role != RoleSuperadmin && tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "non-superadmin principal requires a tenant")
	}
	if (role == RoleModerator || role == RoleStudent) && department == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, string(role)+" requires a department")
	}
	return &Principal{
		ID:         principalID,
		Username:   username,
		Email:      email,
		Role:       role,
		TenantID:   tenantID,
		Department: department,
		Status:     StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
