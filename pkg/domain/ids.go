// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "campusplace/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a PrincipalID where a TenantID is expected.
type (
	PrincipalID uuid.UUID
	TenantID    uuid.UUID
	EntryID     uuid.UUID
	JobID       uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, token claims).

func ParsePrincipalID(s string) (PrincipalID, error) {
	id, err := parseUUID(s, "principal ID")
	return PrincipalID(id), err
}

func ParseTenantID(s string) (TenantID, error) {
	id, err := parseUUID(s, "tenant ID")
	return TenantID(id), err
}

func ParseEntryID(s string) (EntryID, error) {
	id, err := parseUUID(s, "entry ID")
	return EntryID(id), err
}

func ParseJobID(s string) (JobID, error) {
	id, err := parseUUID(s, "job ID")
	return JobID(id), err
}

func NewPrincipalID() PrincipalID { return PrincipalID(uuid.New()) }
func NewTenantID() TenantID       { return TenantID(uuid.New()) }
func NewEntryID() EntryID         { return EntryID(uuid.New()) }
func NewJobID() JobID             { return JobID(uuid.New()) }

// String methods - for logging and debugging.

func (id PrincipalID) String() string { return uuid.UUID(id).String() }
func (id TenantID) String() string    { return uuid.UUID(id).String() }
func (id EntryID) String() string     { return uuid.UUID(id).String() }
func (id JobID) String() string       { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation. A nil TenantID marks a
// superadmin principal, which is not scoped to any tenant.

func (id PrincipalID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id TenantID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id JobID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

// parseUUID is the shared validation logic. Nil UUIDs are allowed here; use
// IsNil() at the service layer for business validation so store lookups can
// still return proper "not found" errors.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return id, nil
}
