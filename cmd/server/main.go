package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"campusplace/internal/audit"
	identitymodels "campusplace/internal/identity/models"
	identityservice "campusplace/internal/identity/service"
	principalstore "campusplace/internal/identity/store/principal"
	jobstore "campusplace/internal/job/store"
	jwttoken "campusplace/internal/jwt_token"
	"campusplace/internal/nonce"
	"campusplace/internal/platform/config"
	"campusplace/internal/platform/health"
	"campusplace/internal/platform/httpserver"
	"campusplace/internal/platform/logger"
	"campusplace/internal/platform/metrics"
	"campusplace/internal/report"
	tenantmodels "campusplace/internal/tenant/models"
	tenantstore "campusplace/internal/tenant/store"
	httptransport "campusplace/internal/transport/http"
	id "campusplace/pkg/domain"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing campusplace",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
	)

	m := metrics.New()

	principals := principalstore.New()
	tenants := tenantstore.New()
	jobs := jobstore.New()
	trail := audit.NewInMemoryStore()

	recorder := audit.NewRecorder(trail,
		audit.WithRecorderLogger(log),
		audit.WithRecorderMetrics(m),
		audit.WithQueueSize(cfg.AuditQueueSize),
	)
	retention := audit.NewRetentionService(trail,
		audit.WithRetentionLogger(log),
		audit.WithRetentionInterval(cfg.RetentionInterval),
		audit.WithRetentionWindow(cfg.AuditRetention),
		audit.WithRetentionMetrics(m),
	)

	nonces := nonce.New(nonce.WithLogger(log))
	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL, cfg.RefreshTTL)

	identity := identityservice.NewService(principals, tenants, tokens,
		identityservice.WithLogger(log),
		identityservice.WithMetrics(m),
		identityservice.WithAuditRecorder(recorder),
		identityservice.WithNonceStore(nonces),
		identityservice.WithCaptchaRequired(cfg.CaptchaRequired),
	)

	scheduler := report.NewScheduler(tenants, principals, trail, report.NewLogSink(log),
		report.WithLogger(log),
		report.WithMetrics(m),
		report.WithInterval(cfg.ReportInterval),
		report.WithIncludeSuperadmins(cfg.ReportSuperadmins),
	)

	if err := bootstrapSuperadmin(context.Background(), principals, tenants, log); err != nil {
		log.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}

	handler := httptransport.NewHandler(identity, jobs, trail,
		httptransport.WithTenantDirectory(tenants),
		httptransport.WithHandlerLogger(log),
		httptransport.WithHandlerMetrics(m),
		httptransport.WithRefreshCookieTTL(cfg.RefreshTTL),
	)
	router := httptransport.NewRouter(handler, httptransport.RouterDeps{
		Tokens:     tokens,
		Principals: principals,
		Recorder:   recorder,
		Health:     health.New(cfg.Environment),
		Logger:     log,
		Metrics:    m,
	})

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := retention.Start(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		err := scheduler.Start(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		err := nonces.StartSweeper(gctx, cfg.NonceSweepInterval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		recorder.Close()
		os.Exit(1)
	}

	// Drain the trail queue before the process exits.
	recorder.Close()
	log.Info("server stopped")
}

// bootstrapSuperadmin seeds the initial platform operator and a demo tenant
// when the store starts empty. Controlled entirely by environment variables;
// a deployment with real data sets none of them.
func bootstrapSuperadmin(ctx context.Context, principals *principalstore.InMemoryPrincipalStore, tenants *tenantstore.InMemoryTenantStore, log *slog.Logger) error {
	email := os.Getenv("SEED_SUPERADMIN_EMAIL")
	password := os.Getenv("SEED_SUPERADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	now := time.Now()
	root, err := identitymodels.NewPrincipal(id.NewPrincipalID(), "superadmin", email, identitymodels.RoleSuperadmin, id.TenantID{}, "", now)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	root.PasswordHash = string(hash)
	if err := principals.Save(ctx, root); err != nil {
		return err
	}
	log.Info("seeded superadmin", "email", email)

	if name := os.Getenv("SEED_TENANT_NAME"); name != "" {
		tenant, err := tenantmodels.NewTenant(id.NewTenantID(), name, name, now)
		if err != nil {
			return err
		}
		if err := tenants.Save(ctx, tenant); err != nil {
			return err
		}
		log.Info("seeded tenant", "name", name, "tenant_id", tenant.ID.String())
	}
	return nil
}
