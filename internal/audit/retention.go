package audit

import (
	"context"
	"log/slog"
	"time"
)

// RetentionWindow is how long entries are kept before hard deletion.
const RetentionWindow = 365 * 24 * time.Hour

// RetentionMetrics is the subset of application metrics the worker reports.
type RetentionMetrics interface {
	AddAuditPurged(count int)
}

// RetentionService periodically hard-deletes entries older than the
// retention window. Purge eligibility is evaluated against entry CreatedAt;
// nothing in the core may depend on entries surviving past the window.
type RetentionService struct {
	store    Store
	logger   *slog.Logger
	interval time.Duration
	window   time.Duration
	metrics  RetentionMetrics
}

type RetentionOption func(*RetentionService)

func WithRetentionLogger(logger *slog.Logger) RetentionOption {
	return func(s *RetentionService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRetentionInterval(interval time.Duration) RetentionOption {
	return func(s *RetentionService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithRetentionWindow overrides the default window. Tests use short windows;
// production keeps the default.
func WithRetentionWindow(window time.Duration) RetentionOption {
	return func(s *RetentionService) {
		if window > 0 {
			s.window = window
		}
	}
}

func WithRetentionMetrics(m RetentionMetrics) RetentionOption {
	return func(s *RetentionService) {
		s.metrics = m
	}
}

func NewRetentionService(store Store, opts ...RetentionOption) *RetentionService {
	service := &RetentionService{
		store:    store,
		logger:   slog.Default(),
		interval: 24 * time.Hour,
		window:   RetentionWindow,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *RetentionService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			startTime := time.Now()
			purged, err := s.RunOnce(ctx)
			duration := time.Since(startTime)

			if err != nil {
				s.logger.Error("audit_retention_purge_failed",
					"error", err,
					"duration_ms", duration.Milliseconds(),
				)
				continue
			}

			s.logger.Info("audit_retention_purge_completed",
				"entries_purged", purged,
				"duration_ms", duration.Milliseconds(),
			)
			if s.metrics != nil {
				s.metrics.AddAuditPurged(purged)
			}

		case <-ctx.Done():
			s.logger.Info("audit retention worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce executes a single purge pass. Logging is handled by the caller (Start).
func (s *RetentionService) RunOnce(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.window)
	return s.store.PurgeOlderThan(ctx, cutoff)
}
