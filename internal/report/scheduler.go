// Package report runs the periodic tenant report fan-out. It reuses the
// tenant and principal enumeration owned by the authorization core; the
// delivery mechanics behind the sink (email, export) live elsewhere.
package report

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"campusplace/internal/audit"
	identitymodels "campusplace/internal/identity/models"
	tenantmodels "campusplace/internal/tenant/models"
	id "campusplace/pkg/domain"
)

const (
	defaultInterval    = 7 * 24 * time.Hour
	defaultFanOutLimit = 4
)

// TenantReport is one composed report: the tenant, who should receive it, and
// the activity summary for the window.
type TenantReport struct {
	Tenant       *tenantmodels.Tenant
	Recipients   []*identitymodels.Principal
	WindowStart  time.Time
	WindowEnd    time.Time
	ActionCounts []audit.ActionCount
	GeneratedAt  time.Time
}

// Sink delivers a composed report. Implementations own transport concerns.
type Sink interface {
	Deliver(ctx context.Context, report *TenantReport) error
}

// TenantLister enumerates tenants eligible for batch features: active status
// and a subscription in good standing.
type TenantLister interface {
	ListReportable(ctx context.Context) ([]*tenantmodels.Tenant, error)
}

// PrincipalDirectory resolves report recipients.
type PrincipalDirectory interface {
	ListByTenant(ctx context.Context, tenantID id.TenantID, role identitymodels.Role) ([]*identitymodels.Principal, error)
	ListSuperadmins(ctx context.Context) ([]*identitymodels.Principal, error)
}

// ActivitySource summarizes trail activity for the report window.
type ActivitySource interface {
	CountsByAction(ctx context.Context, tenantID id.TenantID, from, to time.Time) ([]audit.ActionCount, error)
}

// Metrics is the subset of instrumentation the scheduler emits.
type Metrics interface {
	IncrementReportRuns()
	AddReportsDelivered(count int)
	IncrementReportFailures()
}

// Scheduler owns the report lifecycle. It is constructed and started by the
// composition root; there is no package-level instance.
type Scheduler struct {
	tenants    TenantLister
	principals PrincipalDirectory
	activity   ActivitySource
	sink       Sink
	logger     *slog.Logger
	metrics    Metrics

	interval           time.Duration
	fanOutLimit        int
	includeSuperadmins bool
	now                func() time.Time
}

type Option func(*Scheduler)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// WithInterval overrides the report cadence. Weekly by default.
func WithInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithFanOutLimit bounds how many tenant reports are composed concurrently.
func WithFanOutLimit(limit int) Option {
	return func(s *Scheduler) {
		if limit > 0 {
			s.fanOutLimit = limit
		}
	}
}

// WithIncludeSuperadmins adds platform superadmins to every tenant's
// recipient list.
func WithIncludeSuperadmins(include bool) Option {
	return func(s *Scheduler) {
		s.includeSuperadmins = include
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func NewScheduler(tenants TenantLister, principals PrincipalDirectory, activity ActivitySource, sink Sink, opts ...Option) *Scheduler {
	s := &Scheduler{
		tenants:     tenants,
		principals:  principals,
		activity:    activity,
		sink:        sink,
		interval:    defaultInterval,
		fanOutLimit: defaultFanOutLimit,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Start runs the scheduler until ctx is cancelled, returning ctx.Err(). The
// first run happens after one full interval, not at startup.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("report scheduler started", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("report run failed", "error", err)
			}
		case <-ctx.Done():
			s.logger.Info("report scheduler stopped")
			return ctx.Err()
		}
	}
}

// RunOnce composes and delivers one report per reportable tenant. Tenants are
// processed concurrently up to the fan-out limit; one tenant's failure does
// not stop the others, and the first error is returned after all finish.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if s.metrics != nil {
		s.metrics.IncrementReportRuns()
	}
	now := s.now()

	tenants, err := s.tenants.ListReportable(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementReportFailures()
		}
		return err
	}
	if len(tenants) == 0 {
		s.logger.Info("report run found no reportable tenants")
		return nil
	}

	var superadmins []*identitymodels.Principal
	if s.includeSuperadmins {
		superadmins, err = s.principals.ListSuperadmins(ctx)
		if err != nil {
			if s.metrics != nil {
				s.metrics.IncrementReportFailures()
			}
			return err
		}
	}

	// Deliberately not errgroup.WithContext: one tenant's failure must not
	// cancel the remaining tenants' reports.
	var g errgroup.Group
	g.SetLimit(s.fanOutLimit)
	delivered := make(chan struct{}, len(tenants))

	for _, tenant := range tenants {
		tenant := tenant
		g.Go(func() error {
			if err := s.reportTenant(ctx, tenant, superadmins, now); err != nil {
				if s.metrics != nil {
					s.metrics.IncrementReportFailures()
				}
				s.logger.Error("tenant report failed",
					"tenant_id", tenant.ID.String(),
					"error", err,
				)
				return err
			}
			delivered <- struct{}{}
			return nil
		})
	}

	runErr := g.Wait()
	close(delivered)
	if s.metrics != nil {
		s.metrics.AddReportsDelivered(len(delivered))
	}
	s.logger.Info("report run completed",
		"tenants", len(tenants),
		"delivered", len(delivered),
	)
	return runErr
}

func (s *Scheduler) reportTenant(ctx context.Context, tenant *tenantmodels.Tenant, superadmins []*identitymodels.Principal, now time.Time) error {
	recipients, err := s.principals.ListByTenant(ctx, tenant.ID, identitymodels.RoleAdmin)
	if err != nil {
		return err
	}
	recipients = append(recipients, superadmins...)
	if len(recipients) == 0 {
		s.logger.Warn("tenant has no report recipients", "tenant_id", tenant.ID.String())
		return nil
	}

	counts, err := s.activity.CountsByAction(ctx, tenant.ID, now.Add(-s.interval), now)
	if err != nil {
		return err
	}

	return s.sink.Deliver(ctx, &TenantReport{
		Tenant:       tenant,
		Recipients:   recipients,
		WindowStart:  now.Add(-s.interval),
		WindowEnd:    now,
		ActionCounts: counts,
		GeneratedAt:  now,
	})
}
