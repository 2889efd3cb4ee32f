package models

import (
	"time"

	"campusplace/internal/scope"
	id "campusplace/pkg/domain"
	dErrors "campusplace/pkg/domain-errors"
)

// JobStatus tracks the posting lifecycle.
type JobStatus string

const (
	JobStatusOpen   JobStatus = "open"
	JobStatusClosed JobStatus = "closed"
)

// Job is a tenant-scoped posting, the representative protected resource of
// the placement domain.
type Job struct {
	ID         id.JobID       `json:"id"`
	TenantID   id.TenantID    `json:"tenant_id"`
	Department string         `json:"department"`
	Title      string         `json:"title"`
	Company    string         `json:"company"`
	Status     JobStatus      `json:"status"`
	CreatedBy  id.PrincipalID `json:"created_by"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// ScopeTag exposes the pair authorization decisions are made against.
func (j *Job) ScopeTag() scope.Tag {
	return scope.Tag{TenantID: j.TenantID, Department: j.Department}
}

// CreateJobRequest is the write payload for a new posting.
type CreateJobRequest struct {
	Title      string `json:"title" validate:"required,notblank,max=255"`
	Company    string `json:"company" validate:"required,notblank,max=255"`
	Department string `json:"department" validate:"omitempty,max=64"`
}

// UpdateJobRequest carries a partial update.
type UpdateJobRequest struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,notblank,max=255"`
	Company *string `json:"company,omitempty" validate:"omitempty,notblank,max=255"`
}

// NewJob constructs a posting owned by a tenant.
func NewJob(jobID id.JobID, tenantID id.TenantID, department, title, company string, createdBy id.PrincipalID, now time.Time) (*Job, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "job requires a tenant")
	}
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "job title cannot be empty")
	}
	return &Job{
		ID:         jobID,
		TenantID:   tenantID,
		Department: department,
		Title:      title,
		Company:    company,
		Status:     JobStatusOpen,
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
