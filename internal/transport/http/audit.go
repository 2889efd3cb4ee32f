package httptransport

import (
	"net/http"
	"strings"
	"time"

	"github.com/mssola/useragent"

	"campusplace/internal/audit"
	"campusplace/pkg/requestcontext"
)

// AuditRecorder accepts finished trail entries, fire-and-forget.
type AuditRecorder interface {
	Record(entry *audit.Entry)
}

// AuditHook observes the outcome of each request and records a classified
// trail entry after the response is written. Recording never delays or fails
// the response. Auth endpoints are skipped here; the identity service records
// those itself with knowledge the transport does not have.
func AuditHook(recorder AuditRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/auth/") || !audit.ShouldRecord(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			// Only actions attributable to a principal enter the trail.
			p := PrincipalFromContext(r.Context())
			if p == nil {
				return
			}

			action := audit.DeriveAction(r.Method, r.URL.Path)
			c := audit.Classify(wrapped.statusCode, action, string(p.Role))
			recorder.Record(&audit.Entry{
				TenantID:     p.TenantID,
				ActorID:      p.ID,
				ActorRole:    string(p.Role),
				ActorName:    p.FullName,
				ActorEmail:   p.Email,
				Action:       action,
				ResourceType: audit.DeriveResourceType(r.URL.Path),
				Method:       r.Method,
				Path:         r.URL.Path,
				RemoteAddr:   requestcontext.ClientIP(r.Context()),
				ClientName:   clientName(r.UserAgent()),
				Duration:     time.Since(start),
				Status:       c.Status,
				Severity:     c.Severity,
				Suspicious:   c.Suspicious,
			})
		})
	}
}

// clientName reduces a raw User-Agent to a readable browser/platform label.
func clientName(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	if name == "" {
		return rawUA
	}
	if os := ua.OS(); os != "" {
		return name + " " + version + " (" + os + ")"
	}
	return name + " " + version
}
