package httptransport

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	identitymodels "campusplace/internal/identity/models"
	jobmodels "campusplace/internal/job/models"
	jobstore "campusplace/internal/job/store"
	"campusplace/internal/scope"
	"campusplace/internal/transport/http/json"
	"campusplace/internal/transport/http/shared"
	id "campusplace/pkg/domain"
	dErrors "campusplace/pkg/domain-errors"
	"campusplace/pkg/validation"
)

// Job endpoints are the guarded resource surface: every access runs through
// the scope rules, and mutations land in the trail via the audit hook.

func (h *Handler) handleJobCreate(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	actor, _ := ActorFromContext(r.Context())

	var req jobmodels.CreateJobRequest
	if err := json.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		shared.WriteError(w, err)
		return
	}

	tenantID := actor.TenantID
	if actor.Role == identitymodels.RoleSuperadmin {
		parsed, err := id.ParseTenantID(r.URL.Query().Get("tenant_id"))
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "tenant_id query parameter is required"))
			return
		}
		tenantID = parsed
	}

	// Moderators post into their own department regardless of the payload.
	department := req.Department
	if actor.Role == identitymodels.RoleModerator {
		department = actor.Department
	}

	job, err := jobmodels.NewJob(id.NewJobID(), tenantID, department, req.Title, req.Company, p.ID, nowUTC())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.jobs.Save(r.Context(), job); err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save job"))
		return
	}
	json.WriteJSON(w, http.StatusCreated, job)
}

func (h *Handler) handleJobList(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	tenantID := actor.TenantID
	if actor.Role == identitymodels.RoleSuperadmin {
		parsed, err := id.ParseTenantID(r.URL.Query().Get("tenant_id"))
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "tenant_id query parameter is required"))
			return
		}
		tenantID = parsed
	}

	jobs, err := h.jobs.ListByTenant(r.Context(), tenantID)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list jobs"))
		return
	}
	if jobs == nil {
		jobs = []*jobmodels.Job{}
	}
	json.WriteJSON(w, http.StatusOK, jobs)
}

func (h *Handler) handleJobGet(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadScopedJob(w, r)
	if !ok {
		return
	}
	json.WriteJSON(w, http.StatusOK, job)
}

func (h *Handler) handleJobUpdate(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	if actor.Role == identitymodels.RoleStudent {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "students cannot modify job postings"))
		return
	}

	job, ok := h.loadScopedJob(w, r)
	if !ok {
		return
	}

	var req jobmodels.UpdateJobRequest
	if err := json.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		shared.WriteError(w, err)
		return
	}

	if req.Title != nil {
		job.Title = *req.Title
	}
	if req.Company != nil {
		job.Company = *req.Company
	}
	job.UpdatedAt = nowUTC()

	if err := h.jobs.Save(r.Context(), job); err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save job"))
		return
	}
	json.WriteJSON(w, http.StatusOK, job)
}

func (h *Handler) handleJobDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	job, ok := h.loadScopedJob(w, r)
	if !ok {
		return
	}

	// Capability gate, separate from scope: a student shares the tenant but
	// may never delete postings.
	if actor.Role == identitymodels.RoleStudent {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "students cannot delete job postings"))
		return
	}

	if err := h.jobs.Delete(r.Context(), job.ID); err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete job"))
		return
	}
	json.WriteJSON(w, http.StatusOK, map[string]string{"message": "job deleted"})
}

// loadScopedJob fetches the job from the URL and applies the scope rules,
// writing the mapped denial itself. Cross-tenant jobs surface as not found.
func (h *Handler) loadScopedJob(w http.ResponseWriter, r *http.Request) (*jobmodels.Job, bool) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "Missing or invalid Authorization header")
		return nil, false
	}

	jobID, err := id.ParseJobID(chi.URLParam(r, "jobID"))
	if err != nil {
		shared.WriteError(w, err)
		return nil, false
	}

	job, err := h.jobs.FindByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobstore.ErrNotFound) {
			shared.WriteError(w, jobstore.ErrNotFound)
			return nil, false
		}
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load job"))
		return nil, false
	}

	decision := h.resolveScope(actor, job.ScopeTag())
	switch decision.Outcome {
	case scope.Allow:
		return job, true
	case scope.DenyNotFound:
		shared.WriteError(w, dErrors.New(dErrors.CodeCrossTenantDenied, "job not found"))
	default:
		shared.WriteError(w, dErrors.New(dErrors.CodeCrossDepartmentDenied, "access to this department is not allowed"))
	}
	return nil, false
}
