package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	CaptchaRequired bool

	AuditQueueSize     int
	AuditRetention     time.Duration
	RetentionInterval  time.Duration
	ReportInterval     time.Duration
	ReportSuperadmins  bool
	NonceSweepInterval time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:               envOr("CAMPUSPLACE_ADDR", ":8080"),
		Environment:        envOr("CAMPUSPLACE_ENV", "development"),
		JWTSigningKey:      envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:          envOr("JWT_ISSUER", "campusplace"),
		JWTAudience:        envOr("JWT_AUDIENCE", "campusplace"),
		AccessTTL:          durationOr("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:         durationOr("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		CaptchaRequired:    os.Getenv("CAPTCHA_REQUIRED") == "true",
		AuditQueueSize:     intOr("AUDIT_QUEUE_SIZE", 256),
		AuditRetention:     durationOr("AUDIT_RETENTION", 365*24*time.Hour),
		RetentionInterval:  durationOr("AUDIT_RETENTION_INTERVAL", 24*time.Hour),
		ReportInterval:     durationOr("REPORT_INTERVAL", 7*24*time.Hour),
		ReportSuperadmins:  os.Getenv("REPORT_INCLUDE_SUPERADMINS") == "true",
		NonceSweepInterval: durationOr("NONCE_SWEEP_INTERVAL", time.Minute),
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if duration, err := time.ParseDuration(raw); err == nil && duration > 0 {
			return duration
		}
	}
	return fallback
}

func intOr(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			return value
		}
	}
	return fallback
}
