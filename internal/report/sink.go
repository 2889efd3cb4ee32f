package report

import (
	"context"
	"log/slog"
)

// LogSink writes report deliveries to the log. It stands in for the mail
// pipeline in development and single-node deployments.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(ctx context.Context, report *TenantReport) error {
	s.logger.InfoContext(ctx, "tenant report delivered",
		"tenant_id", report.Tenant.ID.String(),
		"tenant_name", report.Tenant.Name,
		"recipients", len(report.Recipients),
		"actions", len(report.ActionCounts),
		"window_start", report.WindowStart,
		"window_end", report.WindowEnd,
		"log_type", "audit",
	)
	return nil
}
