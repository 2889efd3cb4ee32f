package models

import (
	"time"

	id "campusplace/pkg/domain"
	dErrors "campusplace/pkg/domain-errors"
)

// Tenant is the isolation boundary: a college under which every
// non-superadmin principal and every protected resource is scoped.
type Tenant struct {
	ID           id.TenantID        `json:"id"`
	Name         string             `json:"name"`
	Code         string             `json:"code"`
	Location     string             `json:"location,omitempty"`
	Status       TenantStatus       `json:"status"`
	Subscription SubscriptionStatus `json:"subscription_status"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// ReceivesReports reports whether the tenant is eligible for batch features
// such as scheduled reports. Operational status gates point access;
// subscription status only gates batch features.
func (t *Tenant) ReceivesReports() bool {
	if !t.IsActive() {
		return false
	}
	return t.Subscription == SubscriptionActive || t.Subscription == SubscriptionTrial
}

// Deactivate transitions the tenant to inactive status.
// Returns an error if the tenant is already inactive.
func (t *Tenant) Deactivate(now time.Time) error {
	if !t.IsActive() {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already inactive")
	}
	t.Status = TenantStatusInactive
	t.UpdatedAt = now
	return nil
}

// Reactivate transitions the tenant to active status.
// Returns an error if the tenant is already active.
func (t *Tenant) Reactivate(now time.Time) error {
	if t.IsActive() {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already active")
	}
	t.Status = TenantStatusActive
	t.UpdatedAt = now
	return nil
}

// NewTenant constructs a Tenant and enforces basic invariants.
func NewTenant(tenantID id.TenantID, name, code string, now time.Time) (*Tenant, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name must be 128 characters or less")
	}
	if code == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant code cannot be empty")
	}
	return &Tenant{
		ID:           tenantID,
		Name:         name,
		Code:         code,
		Status:       TenantStatusActive,
		Subscription: SubscriptionActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
