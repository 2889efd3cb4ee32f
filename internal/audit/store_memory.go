package audit

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	id "campusplace/pkg/domain"
)

// InMemoryStore keeps the trail in memory. Every method hands out deep
// copies, which is what enforces the write-once rule at this layer: a caller
// can scribble on what it got back without touching the stored entry.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.EntryID]*Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.EntryID]*Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := copyEntry(entry)
	s.entries[entry.ID] = cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, entryID id.EntryID) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.entries[entryID]; ok {
		return copyEntry(entry), nil
	}
	return nil, fmt.Errorf("audit entry %s: %w", entryID, ErrNotFound)
}

func (s *InMemoryStore) ListRecent(_ context.Context, tenantID id.TenantID, limit int) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(limit, func(e *Entry) bool {
		return e.TenantID == tenantID
	}), nil
}

func (s *InMemoryStore) ListByActor(_ context.Context, actorID id.PrincipalID, limit int) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(limit, func(e *Entry) bool {
		return e.ActorID == actorID
	}), nil
}

// ListSuspicious returns entries a reviewer should look at: flagged entries
// plus high/critical severity plus outright failures, tenant-scoped.
func (s *InMemoryStore) ListSuspicious(_ context.Context, tenantID id.TenantID, limit int) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(limit, func(e *Entry) bool {
		if e.TenantID != tenantID {
			return false
		}
		return e.Suspicious || e.Severity == SeverityHigh || e.Severity == SeverityCritical || e.Status == StatusFailure
	}), nil
}

func (s *InMemoryStore) CountsByAction(_ context.Context, tenantID id.TenantID, from, to time.Time) ([]ActionCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byAction := make(map[Action]*ActionCount)
	for _, e := range s.entries {
		if e.TenantID != tenantID {
			continue
		}
		if !from.IsZero() && e.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && e.CreatedAt.After(to) {
			continue
		}
		count, ok := byAction[e.Action]
		if !ok {
			count = &ActionCount{Action: e.Action}
			byAction[e.Action] = count
		}
		count.Count++
		switch e.Status {
		case StatusSuccess:
			count.Success++
		case StatusFailure:
			count.Failure++
		case StatusWarning:
			count.Warning++
		}
	}

	out := make([]ActionCount, 0, len(byAction))
	for _, count := range byAction {
		out = append(out, *count)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Action < out[j].Action
	})
	return out, nil
}

// PurgeOlderThan hard-deletes entries created before the cutoff and returns
// how many were removed.
func (s *InMemoryStore) PurgeOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for entryID, entry := range s.entries {
		if entry.CreatedAt.Before(cutoff) {
			delete(s.entries, entryID)
			purged++
		}
	}
	return purged, nil
}

// collect filters, sorts newest first and copies. Caller holds the read lock.
func (s *InMemoryStore) collect(limit int, match func(*Entry) bool) []*Entry {
	var out []*Entry
	for _, entry := range s.entries {
		if match(entry) {
			out = append(out, copyEntry(entry))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func copyEntry(entry *Entry) *Entry {
	cp := *entry
	if entry.Changes != nil {
		changes := Changes{
			FieldsChanged: append([]string(nil), entry.Changes.FieldsChanged...),
		}
		if entry.Changes.Before != nil {
			changes.Before = make(map[string]any, len(entry.Changes.Before))
			for k, v := range entry.Changes.Before {
				changes.Before[k] = v
			}
		}
		if entry.Changes.After != nil {
			changes.After = make(map[string]any, len(entry.Changes.After))
			for k, v := range entry.Changes.After {
				changes.After[k] = v
			}
		}
		cp.Changes = &changes
	}
	return &cp
}
