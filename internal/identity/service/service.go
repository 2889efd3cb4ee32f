package service

import (
	"context"
	"log/slog"
	"time"

	"campusplace/internal/audit"
	"campusplace/internal/identity/models"
	jwttoken "campusplace/internal/jwt_token"
	"campusplace/internal/nonce"
	"campusplace/internal/platform/metrics"
	tenantmodels "campusplace/internal/tenant/models"
	id "campusplace/pkg/domain"
)

// PrincipalStore defines the persistence interface for principal data.
// Error Contract: All Find methods return store.ErrNotFound when the entity
// doesn't exist. Credential mutations are serialized per principal and are
// durable when the call returns.
type PrincipalStore interface {
	Save(ctx context.Context, p *models.Principal) error
	FindByID(ctx context.Context, principalID id.PrincipalID) (*models.Principal, error)
	FindByIdentifier(ctx context.Context, identifier string) ([]*models.Principal, error)
	FindByEmail(ctx context.Context, email string) (*models.Principal, error)
	RecordFailedAttempt(ctx context.Context, principalID id.PrincipalID, now time.Time) (int, *time.Time, error)
	ClearLock(ctx context.Context, principalID id.PrincipalID, now time.Time) error
	RecordLogin(ctx context.Context, principalID id.PrincipalID, refreshHandle string, now time.Time) error
	RotateRefreshHandle(ctx context.Context, principalID id.PrincipalID, expected, next string, now time.Time) error
	ClearRefreshHandle(ctx context.Context, principalID id.PrincipalID, now time.Time) error
	UpdatePassword(ctx context.Context, principalID id.PrincipalID, newHash string, now time.Time) error
}

// TenantStore defines the read surface the session manager needs.
type TenantStore interface {
	FindByID(ctx context.Context, tenantID id.TenantID) (*tenantmodels.Tenant, error)
}

// TokenService mints and verifies both token tiers.
type TokenService interface {
	GenerateAccessToken(principalID id.PrincipalID, role string, tenantID id.TenantID, now time.Time) (string, error)
	GenerateRefreshToken(principalID id.PrincipalID, now time.Time) (token, handle string, err error)
	ValidateRefreshToken(tokenString string) (*jwttoken.RefreshTokenClaims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// AuditRecorder accepts finished trail entries, fire-and-forget.
type AuditRecorder interface {
	Record(entry *audit.Entry)
}

const (
	resetTokenTTL = time.Hour
	captchaTTL    = 5 * time.Minute
)

// Service is the session manager: it owns login, the lockout state machine,
// token rotation and the self-service credential flows.
type Service struct {
	principals PrincipalStore
	tenants    TenantStore
	tokens     TokenService
	nonces     *nonce.Store
	recorder   AuditRecorder
	logger     *slog.Logger
	metrics    *metrics.Metrics

	captchaRequired bool
	now             func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(s *Service) {
		s.recorder = recorder
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithNonceStore wires the store backing captcha answers and password reset
// tokens.
func WithNonceStore(store *nonce.Store) Option {
	return func(s *Service) {
		s.nonces = store
	}
}

// WithCaptchaRequired makes login demand a previously issued captcha answer.
func WithCaptchaRequired(required bool) Option {
	return func(s *Service) {
		s.captchaRequired = required
	}
}

// WithClock overrides the time source. Tests use it to step through lock
// windows without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(principals PrincipalStore, tenants TenantStore, tokens TokenService, opts ...Option) *Service {
	svc := &Service{
		principals: principals,
		tenants:    tenants,
		tokens:     tokens,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.nonces == nil {
		svc.nonces = nonce.New()
	}
	return svc
}

func (s *Service) sessionResult(p *models.Principal, accessToken, refreshToken string) *models.SessionResult {
	return &models.SessionResult{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        int(s.tokens.AccessTTL().Seconds()),
		RefreshExpiresIn: int(s.tokens.RefreshTTL().Seconds()),
		Principal:        models.MeFromPrincipal(p),
	}
}
