package principal

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"campusplace/internal/identity/models"
	id "campusplace/pkg/domain"
	dErrors "campusplace/pkg/domain-errors"
	psync "campusplace/pkg/platform/sync"
)

// ErrNotFound is returned when a requested principal does not exist.
// Services should check for it using errors.Is.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "principal not found")

// ErrStaleRefreshHandle is returned when a compare-and-swap on the refresh
// handle fails because the stored value no longer matches.
var ErrStaleRefreshHandle = dErrors.New(dErrors.CodeConflict, "refresh handle does not match stored value")

// Error Contract:
// All store methods follow this error pattern:
// - Return ErrNotFound when the requested entity does not exist
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures
//
// InMemoryPrincipalStore keeps principals in memory. Credential mutations
// (failed-attempt counting, lock transitions, refresh handle rotation) are
// serialized per principal with a keyed mutex so that concurrent attempts
// observe each other's writes; each mutation is applied before the method
// returns, which is what makes the lockout durable before any reply is sent.
type InMemoryPrincipalStore struct {
	mu         sync.RWMutex
	principals map[id.PrincipalID]*models.Principal
	keyed      *psync.KeyedMutex
}

// New constructs an empty in-memory principal store.
func New() *InMemoryPrincipalStore {
	return &InMemoryPrincipalStore{
		principals: make(map[id.PrincipalID]*models.Principal),
		keyed:      psync.NewKeyedMutex(),
	}
}

func (s *InMemoryPrincipalStore) Save(_ context.Context, p *models.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.principals[p.ID] = &cp
	return nil
}

func (s *InMemoryPrincipalStore) FindByID(_ context.Context, principalID id.PrincipalID) (*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.principals[principalID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, fmt.Errorf("principal %s: %w", principalID, ErrNotFound)
}

// FindByIdentifier returns every principal whose username or email matches
// the identifier, compared case-insensitively. The caller resolves ambiguity;
// the store never picks a winner. Results are ordered by creation time so
// candidate selection is deterministic.
func (s *InMemoryPrincipalStore) FindByIdentifier(_ context.Context, identifier string) ([]*models.Principal, error) {
	needle := strings.ToLower(identifier)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Principal
	for _, p := range s.principals {
		if strings.ToLower(p.Username) == needle || strings.ToLower(p.Email) == needle {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// FindByEmail returns the principal with the given email, compared
// case-insensitively. Used by the password reset flow.
func (s *InMemoryPrincipalStore) FindByEmail(_ context.Context, email string) (*models.Principal, error) {
	needle := strings.ToLower(email)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.principals {
		if strings.ToLower(p.Email) == needle {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("principal with email: %w", ErrNotFound)
}

// RecordFailedAttempt increments the consecutive-failure counter and, on
// reaching the threshold, opens the lockout window. Returns the updated
// counter and lock expiry. The write completes before the method returns.
func (s *InMemoryPrincipalStore) RecordFailedAttempt(_ context.Context, principalID id.PrincipalID, now time.Time) (int, *time.Time, error) {
	unlock := s.keyed.Lock(principalID.String())
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.principals[principalID]
	if !ok {
		return 0, nil, fmt.Errorf("principal %s: %w", principalID, ErrNotFound)
	}
	p.FailedAttempts++
	if p.FailedAttempts >= models.MaxFailedAttempts && p.LockedUntil == nil {
		until := now.Add(models.LockDuration)
		p.LockedUntil = &until
	}
	p.UpdatedAt = now
	return p.FailedAttempts, p.LockedUntil, nil
}

// ClearLock resets the failure counter and removes any lock. Called when a
// lockout window is found to have expired (lazy expiry).
func (s *InMemoryPrincipalStore) ClearLock(_ context.Context, principalID id.PrincipalID, now time.Time) error {
	unlock := s.keyed.Lock(principalID.String())
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.principals[principalID]
	if !ok {
		return fmt.Errorf("principal %s: %w", principalID, ErrNotFound)
	}
	p.FailedAttempts = 0
	p.LockedUntil = nil
	p.UpdatedAt = now
	return nil
}

// RecordLogin clears lockout state, stamps the login time and installs the
// refresh handle for the new session. Installing a new handle invalidates
// whatever refresh token was live before.
func (s *InMemoryPrincipalStore) RecordLogin(_ context.Context, principalID id.PrincipalID, refreshHandle string, now time.Time) error {
	unlock := s.keyed.Lock(principalID.String())
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.principals[principalID]
	if !ok {
		return fmt.Errorf("principal %s: %w", principalID, ErrNotFound)
	}
	p.FailedAttempts = 0
	p.LockedUntil = nil
	p.RefreshHandle = refreshHandle
	p.LastLoginAt = &now
	p.UpdatedAt = now
	return nil
}

// RotateRefreshHandle swaps the stored refresh handle from expected to next
// in one step. Returns ErrStaleRefreshHandle when the stored value differs,
// which is how a replayed refresh token loses the race.
func (s *InMemoryPrincipalStore) RotateRefreshHandle(_ context.Context, principalID id.PrincipalID, expected, next string, now time.Time) error {
	unlock := s.keyed.Lock(principalID.String())
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.principals[principalID]
	if !ok {
		return fmt.Errorf("principal %s: %w", principalID, ErrNotFound)
	}
	if p.RefreshHandle == "" || p.RefreshHandle != expected {
		return fmt.Errorf("rotate refresh handle for %s: %w", principalID, ErrStaleRefreshHandle)
	}
	p.RefreshHandle = next
	p.UpdatedAt = now
	return nil
}

// ClearRefreshHandle removes the live session handle. Logout is idempotent:
// clearing an already-empty handle is not an error.
func (s *InMemoryPrincipalStore) ClearRefreshHandle(_ context.Context, principalID id.PrincipalID, now time.Time) error {
	unlock := s.keyed.Lock(principalID.String())
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.principals[principalID]
	if !ok {
		return fmt.Errorf("principal %s: %w", principalID, ErrNotFound)
	}
	p.RefreshHandle = ""
	p.UpdatedAt = now
	return nil
}

// UpdatePassword installs a new password hash and revokes the live session.
// A password change always forces a fresh login.
func (s *InMemoryPrincipalStore) UpdatePassword(_ context.Context, principalID id.PrincipalID, newHash string, now time.Time) error {
	unlock := s.keyed.Lock(principalID.String())
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.principals[principalID]
	if !ok {
		return fmt.Errorf("principal %s: %w", principalID, ErrNotFound)
	}
	p.PasswordHash = newHash
	p.RefreshHandle = ""
	p.FailedAttempts = 0
	p.LockedUntil = nil
	p.UpdatedAt = now
	return nil
}

// ListByTenant returns active principals in a tenant holding the given role.
// Used by the report scheduler to resolve recipients.
func (s *InMemoryPrincipalStore) ListByTenant(_ context.Context, tenantID id.TenantID, role models.Role) ([]*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Principal
	for _, p := range s.principals {
		if p.TenantID == tenantID && p.Role == role && p.IsActive() {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// ListSuperadmins returns active superadmin principals.
func (s *InMemoryPrincipalStore) ListSuperadmins(_ context.Context) ([]*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Principal
	for _, p := range s.principals {
		if p.Role == models.RoleSuperadmin && p.IsActive() {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}
