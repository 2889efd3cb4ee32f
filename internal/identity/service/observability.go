package service

import (
	"context"

	"go.opentelemetry.io/otel"

	"campusplace/internal/audit"
	"campusplace/internal/identity/models"
	"campusplace/pkg/requestcontext"
)

var tracer = otel.Tracer("campusplace/identity")

// authFailure logs and counts a rejected authentication attempt and records a
// login_failed trail entry when the attempt could be tied to a principal.
// Attempts that never resolved to an account (p == nil) are logged and
// counted but produce no trail entry, matching the trail's actor invariant.
func (s *Service) authFailure(ctx context.Context, p *models.Principal, reason string, extra ...any) {
	attrs := []any{"reason", reason, "log_type", "standard"}
	if p != nil {
		attrs = append(attrs, "principal_id", p.ID.String())
	}
	attrs = append(attrs, extra...)
	s.logger.WarnContext(ctx, "authentication rejected", attrs...)

	if s.metrics != nil {
		s.metrics.IncrementLoginFailures(reason)
	}
	if p != nil {
		s.recordAuthEntry(ctx, p, audit.ActionLoginFailed, 401, reason)
	}
}

// recordAuthEntry emits one trail entry for an authentication flow. Request
// metadata comes from the context; direct service calls without it still
// produce a classified entry, just without method/path/client fields.
func (s *Service) recordAuthEntry(ctx context.Context, p *models.Principal, action audit.Action, statusCode int, errMsg string) {
	if s.recorder == nil {
		return
	}
	c := audit.Classify(statusCode, action, string(p.Role))
	s.recorder.Record(&audit.Entry{
		TenantID:   p.TenantID,
		ActorID:    p.ID,
		ActorRole:  string(p.Role),
		ActorName:  p.FullName,
		ActorEmail: p.Email,
		Action:     action,
		Method:     requestcontext.Method(ctx),
		Path:       requestcontext.Path(ctx),
		RemoteAddr: requestcontext.ClientIP(ctx),
		ClientName: requestcontext.UserAgent(ctx),
		Status:     c.Status,
		Severity:   c.Severity,
		Suspicious: c.Suspicious,
		Error:      errMsg,
	})
}

func (s *Service) incrementLoginSuccesses() {
	if s.metrics != nil {
		s.metrics.IncrementLoginSuccesses()
	}
}

func (s *Service) incrementAccountLockouts() {
	if s.metrics != nil {
		s.metrics.IncrementAccountLockouts()
	}
}

func (s *Service) incrementTokenRefreshes() {
	if s.metrics != nil {
		s.metrics.IncrementTokenRefreshes()
	}
}

func (s *Service) incrementStaleRefreshes() {
	if s.metrics != nil {
		s.metrics.IncrementStaleRefreshes()
	}
}
