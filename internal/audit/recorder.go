package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"campusplace/internal/platform/privacy"
	id "campusplace/pkg/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("campusplace/audit")

// RecorderMetrics is the subset of application metrics the recorder reports.
type RecorderMetrics interface {
	IncrementAuditRecorded(severity string)
	IncrementAuditSuspicious()
	IncrementAuditDropped()
	SetAuditQueueDepth(depth int)
}

// Recorder accepts finished entries and persists them in the background. It
// is fire-and-forget by contract: Record never blocks the caller, never
// returns an error, and persistence failures are logged and swallowed. The
// worker uses its own context, so cancellation of the request that produced
// an entry cannot cancel its write.
type Recorder struct {
	store   Store
	entries chan *Entry
	wg      sync.WaitGroup
	logger  *slog.Logger
	metrics RecorderMetrics
}

// RecorderOption configures the Recorder.
type RecorderOption func(*Recorder)

func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithRecorderMetrics(m RecorderMetrics) RecorderOption {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// WithQueueSize sets the bounded buffer between request handlers and the
// persistence worker. When it fills up, new entries are dropped and counted.
func WithQueueSize(size int) RecorderOption {
	return func(r *Recorder) {
		if size > 0 {
			r.entries = make(chan *Entry, size)
		}
	}
}

func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:   store,
		entries: make(chan *Entry, 256),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.wg.Add(1)
	go r.processEntries()
	return r
}

// Record enqueues a finished entry. Missing ID and timestamp are filled in
// here so call sites only assemble what they observed. Client addresses are
// anonymized before the entry reaches any store.
func (r *Recorder) Record(entry *Entry) {
	if entry.ID.IsNil() {
		entry.ID = id.NewEntryID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.RemoteAddr != "" {
		entry.RemoteAddr = privacy.AnonymizeIP(entry.RemoteAddr)
	}

	select {
	case r.entries <- entry:
		if r.metrics != nil {
			r.metrics.SetAuditQueueDepth(len(r.entries))
		}
	default:
		// Queue full. Dropping is the documented failure mode; blocking the
		// response pipeline is not.
		r.logger.Warn("audit queue full, entry dropped",
			"action", entry.Action,
			"actor_id", entry.ActorID.String(),
			"log_type", "audit",
		)
		if r.metrics != nil {
			r.metrics.IncrementAuditDropped()
		}
	}
}

// Close stops accepting entries and waits for the queue to drain.
func (r *Recorder) Close() {
	close(r.entries)
	r.wg.Wait()
}

func (r *Recorder) processEntries() {
	defer r.wg.Done()
	for entry := range r.entries {
		r.persist(entry)
	}
}

func (r *Recorder) persist(entry *Entry) {
	ctx, span := tracer.Start(context.Background(), "audit.persist",
		trace.WithAttributes(
			attribute.String("audit.action", string(entry.Action)),
			attribute.String("audit.severity", string(entry.Severity)),
		))
	defer span.End()

	if err := r.store.Append(ctx, entry); err != nil {
		span.RecordError(err)
		r.logger.Error("failed to persist audit entry",
			"error", err,
			"action", entry.Action,
			"actor_id", entry.ActorID.String(),
			"log_type", "audit",
		)
		return
	}

	r.logger.Info(string(entry.Action),
		"actor_id", entry.ActorID.String(),
		"actor_role", entry.ActorRole,
		"status", entry.Status,
		"severity", entry.Severity,
		"suspicious", entry.Suspicious,
		"log_type", "audit",
	)
	if r.metrics != nil {
		r.metrics.IncrementAuditRecorded(string(entry.Severity))
		if entry.Suspicious {
			r.metrics.IncrementAuditSuspicious()
		}
		r.metrics.SetAuditQueueDepth(len(r.entries))
	}
}
