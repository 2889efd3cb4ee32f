package audit

import (
	"context"
	"time"

	id "campusplace/pkg/domain"
	dErrors "campusplace/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "audit entry not found")

// ActionCount is one row of the counts-by-action aggregate.
type ActionCount struct {
	Action  Action `json:"action"`
	Count   int    `json:"count"`
	Success int    `json:"success"`
	Failure int    `json:"failure"`
	Warning int    `json:"warning"`
}

// Store is the persistence contract for the trail. Append is the only write;
// entries are never mutated afterwards. All list methods return entries
// ordered newest first by CreatedAt.
//
// Error Contract: FindByID returns ErrNotFound when the entry does not exist.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	FindByID(ctx context.Context, entryID id.EntryID) (*Entry, error)
	ListRecent(ctx context.Context, tenantID id.TenantID, limit int) ([]*Entry, error)
	ListByActor(ctx context.Context, actorID id.PrincipalID, limit int) ([]*Entry, error)
	ListSuspicious(ctx context.Context, tenantID id.TenantID, limit int) ([]*Entry, error)
	CountsByAction(ctx context.Context, tenantID id.TenantID, from, to time.Time) ([]ActionCount, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
