package httptransport

import (
	"context"
	"log/slog"
	"time"

	"campusplace/internal/audit"
	identitymodels "campusplace/internal/identity/models"
	jobmodels "campusplace/internal/job/models"
	"campusplace/internal/platform/metrics"
	"campusplace/internal/scope"
	tenantmodels "campusplace/internal/tenant/models"
	id "campusplace/pkg/domain"
)

// IdentityService is the session manager surface the transport needs.
type IdentityService interface {
	Login(ctx context.Context, req *identitymodels.LoginRequest) (*identitymodels.SessionResult, error)
	Refresh(ctx context.Context, req *identitymodels.RefreshRequest) (*identitymodels.SessionResult, error)
	Logout(ctx context.Context, principalID id.PrincipalID) error
	ChangePassword(ctx context.Context, principalID id.PrincipalID, req *identitymodels.ChangePasswordRequest) error
	RequestPasswordReset(ctx context.Context, req *identitymodels.ResetRequest) (string, error)
	ConfirmPasswordReset(ctx context.Context, req *identitymodels.ResetConfirmRequest) error
	Captcha() (id, question string, err error)
}

// JobStore is the persistence surface behind the guarded job endpoints.
type JobStore interface {
	Save(ctx context.Context, job *jobmodels.Job) error
	FindByID(ctx context.Context, jobID id.JobID) (*jobmodels.Job, error)
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*jobmodels.Job, error)
	Delete(ctx context.Context, jobID id.JobID) error
}

// TenantDirectory serves the public tenant picker on the login page.
type TenantDirectory interface {
	ListActive(ctx context.Context) ([]*tenantmodels.Tenant, error)
}

// AuditQueries is the read-only trail surface, itself tenant-scoped.
type AuditQueries interface {
	ListRecent(ctx context.Context, tenantID id.TenantID, limit int) ([]*audit.Entry, error)
	ListByActor(ctx context.Context, actorID id.PrincipalID, limit int) ([]*audit.Entry, error)
	ListSuspicious(ctx context.Context, tenantID id.TenantID, limit int) ([]*audit.Entry, error)
	CountsByAction(ctx context.Context, tenantID id.TenantID, from, to time.Time) ([]audit.ActionCount, error)
}

// Handler is the thin HTTP layer. It delegates to domain services without
// embedding business logic so transport concerns remain isolated.
type Handler struct {
	identity IdentityService
	jobs     JobStore
	trail    AuditQueries
	tenants  TenantDirectory
	logger   *slog.Logger
	metrics  *metrics.Metrics

	refreshCookieTTL time.Duration
}

type HandlerOption func(*Handler)

func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func WithHandlerMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithTenantDirectory enables the public tenant picker endpoint.
func WithTenantDirectory(tenants TenantDirectory) HandlerOption {
	return func(h *Handler) {
		h.tenants = tenants
	}
}

// WithRefreshCookieTTL aligns the cookie lifetime with the refresh token TTL.
func WithRefreshCookieTTL(ttl time.Duration) HandlerOption {
	return func(h *Handler) {
		if ttl > 0 {
			h.refreshCookieTTL = ttl
		}
	}
}

func NewHandler(identity IdentityService, jobs JobStore, trail AuditQueries, opts ...HandlerOption) *Handler {
	h := &Handler{
		identity:         identity,
		jobs:             jobs,
		trail:            trail,
		refreshCookieTTL: 7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

func nowUTC() time.Time { return time.Now().UTC() }

// resolveScope runs the ordered scope rules and counts the outcome.
func (h *Handler) resolveScope(actor scope.Actor, resource scope.Tag) scope.Decision {
	decision := scope.Resolve(actor, resource)
	if h.metrics != nil {
		h.metrics.IncrementScopeDecisions(string(decision.Outcome))
	}
	return decision
}
