package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"campusplace/internal/tenant/models"
	id "campusplace/pkg/domain"
	dErrors "campusplace/pkg/domain-errors"
)

// ErrNotFound is returned when a requested tenant does not exist.
// Services should check for it using errors.Is.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "tenant not found")

// Error Contract:
// All store methods follow this error pattern:
// - Return ErrNotFound when the requested entity does not exist
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures
type InMemoryTenantStore struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]*models.Tenant
}

// New constructs an empty in-memory tenant store.
func New() *InMemoryTenantStore {
	return &InMemoryTenantStore{tenants: make(map[id.TenantID]*models.Tenant)}
}

func (s *InMemoryTenantStore) Save(_ context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *tenant
	s.tenants[tenant.ID] = &cp
	return nil
}

func (s *InMemoryTenantStore) FindByID(_ context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tenant, ok := s.tenants[tenantID]; ok {
		cp := *tenant
		return &cp, nil
	}
	return nil, fmt.Errorf("tenant %s: %w", tenantID, ErrNotFound)
}

// ListActive returns active tenants ordered by name. Used for the public
// login tenant picker.
func (s *InMemoryTenantStore) ListActive(_ context.Context) ([]*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Tenant
	for _, tenant := range s.tenants {
		if tenant.IsActive() {
			cp := *tenant
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListReportable returns tenants eligible for scheduled reports: active
// operational status and a non-suspended, non-expired subscription.
func (s *InMemoryTenantStore) ListReportable(_ context.Context) ([]*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Tenant
	for _, tenant := range s.tenants {
		if tenant.ReceivesReports() {
			cp := *tenant
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
