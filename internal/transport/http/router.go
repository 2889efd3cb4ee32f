package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	identitymodels "campusplace/internal/identity/models"
	"campusplace/internal/platform/health"
	"campusplace/internal/platform/metrics"
	"campusplace/internal/transport/http/json"
)

// RouterDeps carries everything the router wires besides the handler itself.
type RouterDeps struct {
	Tokens     AccessTokenValidator
	Principals PrincipalLoader
	Recorder   AuditRecorder
	Health     *health.Handler
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(h *Handler, deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(Recovery(logger))
	r.Use(RequestID)
	r.Use(RequestMetadata)
	r.Use(Logger(logger, deps.Metrics))
	r.Use(Timeout(30 * time.Second))
	r.Use(ContentTypeJSON)

	requireAuth := RequireAuth(deps.Tokens, deps.Principals, logger)
	auditHook := AuditHook(deps.Recorder)

	if deps.Health != nil {
		deps.Health.Register(r)
	}
	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		json.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/refresh", h.handleRefresh)
		r.Get("/captcha", h.handleCaptcha)
		r.Get("/tenants", h.handleTenants)
		r.Post("/password-reset", h.handlePasswordResetRequest)
		r.Post("/password-reset/confirm", h.handlePasswordResetConfirm)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", h.handleLogout)
			r.Get("/me", h.handleMe)
			r.Post("/change-password", h.handleChangePassword)
		})
	})

	r.Route("/api/jobs", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(auditHook)
		r.Get("/", h.handleJobList)
		r.Post("/", h.handleJobCreate)
		r.Get("/{jobID}", h.handleJobGet)
		r.Put("/{jobID}", h.handleJobUpdate)
		r.Delete("/{jobID}", h.handleJobDelete)
	})

	r.Route("/api/audit", func(r chi.Router) {
		r.Use(requireAuth)
		// Hook before the role gate so denied trail reads are themselves
		// recorded as suspicious access attempts.
		r.Use(auditHook)
		r.Use(RequireRole(identitymodels.RoleAdmin, identitymodels.RoleSuperadmin))
		r.Get("/", h.handleAuditRecent)
		r.Get("/suspicious", h.handleAuditSuspicious)
		r.Get("/actor/{actorID}", h.handleAuditByActor)
		r.Get("/stats", h.handleAuditStats)
	})

	return r
}
