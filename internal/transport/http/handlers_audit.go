package httptransport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"campusplace/internal/audit"
	identitymodels "campusplace/internal/identity/models"
	"campusplace/internal/transport/http/json"
	"campusplace/internal/transport/http/shared"
	id "campusplace/pkg/domain"
	dErrors "campusplace/pkg/domain-errors"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// Trail queries are restricted to admins and superadmins by the router; the
// helpers below additionally pin every query to the caller's tenant unless
// the caller is a superadmin.

func (h *Handler) handleAuditRecent(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.auditTenant(w, r)
	if !ok {
		return
	}
	entries, err := h.trail.ListRecent(r.Context(), tenantID, auditLimit(r))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list trail entries"))
		return
	}
	writeEntries(w, entries)
}

func (h *Handler) handleAuditSuspicious(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.auditTenant(w, r)
	if !ok {
		return
	}
	entries, err := h.trail.ListSuspicious(r.Context(), tenantID, auditLimit(r))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list trail entries"))
		return
	}
	writeEntries(w, entries)
}

func (h *Handler) handleAuditByActor(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())

	actorID, err := id.ParsePrincipalID(chi.URLParam(r, "actorID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	entries, err := h.trail.ListByActor(r.Context(), actorID, auditLimit(r))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list trail entries"))
		return
	}

	// Admins only see entries inside their own tenant, even for an actor who
	// has history elsewhere.
	if p.Role != identitymodels.RoleSuperadmin {
		scoped := entries[:0]
		for _, entry := range entries {
			if entry.TenantID == p.TenantID {
				scoped = append(scoped, entry)
			}
		}
		entries = scoped
	}
	writeEntries(w, entries)
}

func (h *Handler) handleAuditStats(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.auditTenant(w, r)
	if !ok {
		return
	}

	from, err := parseTimeParam(r, "from")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	counts, err := h.trail.CountsByAction(r.Context(), tenantID, from, to)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate trail entries"))
		return
	}
	if counts == nil {
		counts = []audit.ActionCount{}
	}
	json.WriteJSON(w, http.StatusOK, counts)
}

// auditTenant resolves which tenant's trail the caller may read: admins get
// their own tenant, superadmins name one with the tenant_id parameter.
func (h *Handler) auditTenant(w http.ResponseWriter, r *http.Request) (id.TenantID, bool) {
	p := PrincipalFromContext(r.Context())
	if p.Role != identitymodels.RoleSuperadmin {
		return p.TenantID, true
	}
	tenantID, err := id.ParseTenantID(r.URL.Query().Get("tenant_id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "tenant_id query parameter is required"))
		return id.TenantID{}, false
	}
	return tenantID, true
}

func auditLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultAuditLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultAuditLimit
	}
	if limit > maxAuditLimit {
		return maxAuditLimit
	}
	return limit
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeBadRequest, name+" must be RFC 3339")
	}
	return t, nil
}

func writeEntries(w http.ResponseWriter, entries []*audit.Entry) {
	if entries == nil {
		entries = []*audit.Entry{}
	}
	json.WriteJSON(w, http.StatusOK, entries)
}
