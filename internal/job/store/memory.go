// Package store provides job persistence. The in-memory implementation backs
// tests and single-node deployments.
package store

import (
	"context"
	"sort"
	"sync"

	"campusplace/internal/job/models"
	id "campusplace/pkg/domain"
	dErrors "campusplace/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "job not found")

// InMemoryJobStore is a thread-safe map-backed job store.
type InMemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[id.JobID]*models.Job
}

func New() *InMemoryJobStore {
	return &InMemoryJobStore{jobs: make(map[id.JobID]*models.Job)}
}

func (s *InMemoryJobStore) Save(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *job
	s.jobs[job.ID] = &clone
	return nil
}

// FindByID returns a copy of the job.
// Error Contract: returns ErrNotFound when the job does not exist.
func (s *InMemoryJobStore) FindByID(_ context.Context, jobID id.JobID) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *job
	return &clone, nil
}

// ListByTenant returns the tenant's jobs ordered newest first.
func (s *InMemoryJobStore) ListByTenant(_ context.Context, tenantID id.TenantID) ([]*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var jobs []*models.Job
	for _, job := range s.jobs {
		if job.TenantID == tenantID {
			clone := *job
			jobs = append(jobs, &clone)
		}
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

func (s *InMemoryJobStore) Delete(_ context.Context, jobID id.JobID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[jobID]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, jobID)
	return nil
}
