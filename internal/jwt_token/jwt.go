package jwttoken

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	id "campusplace/pkg/domain"
	dErrors "campusplace/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
)

// refreshTokenKind marks refresh tokens so an access token can never be
// replayed on the refresh endpoint, and vice versa.
const refreshTokenKind = "refresh"

// AccessTokenClaims represents the JWT claims for our access tokens.
// Role and tenant ride in the token so the scope resolver never needs a
// store lookup for the actor side of a decision.
type AccessTokenClaims struct {
	PrincipalID string `json:"principal_id"`
	Role        string `json:"role"`
	TenantID    string `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// RefreshTokenClaims carries only the subject and the kind marker. Everything
// else about the session is re-read from the store at refresh time.
type RefreshTokenClaims struct {
	PrincipalID string `json:"principal_id"`
	TokenKind   string `json:"token_kind"`
	jwt.RegisteredClaims
}

// JWTService handles JWT creation and validation for both token tiers.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewJWTService(signingKey, issuer, audience string, accessTTL, refreshTTL time.Duration) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *JWTService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *JWTService) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *JWTService) GenerateAccessToken(principalID id.PrincipalID, role string, tenantID id.TenantID, now time.Time) (string, error) {
	jti, err := newJTI()
	if err != nil {
		return "", err
	}

	claims := AccessTokenClaims{
		PrincipalID: principalID.String(),
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        jti,
		},
	}
	if !tenantID.IsNil() {
		claims.TenantID = tenantID.String()
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// GenerateRefreshToken mints a refresh token and returns it together with its
// storage handle. Only the handle is persisted; the token itself never
// touches the store.
func (s *JWTService) GenerateRefreshToken(principalID id.PrincipalID, now time.Time) (token string, handle string, err error) {
	jti, err := newJTI()
	if err != nil {
		return "", "", err
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshTokenClaims{
		PrincipalID: principalID.String(),
		TokenKind:   refreshTokenKind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        jti,
		},
	}).SignedString(s.signingKey)
	if err != nil {
		return "", "", err
	}
	return token, HandleOf(token), nil
}

func (s *JWTService) ValidateAccessToken(tokenString string) (*AccessTokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*AccessTokenClaims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	if claims.Issuer != s.issuer {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token issuer")
	}
	if claims.PrincipalID == "" || claims.Role == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// ValidateRefreshToken verifies signature, expiry and the kind marker. The
// store-side handle comparison happens in the identity service; a token that
// passes here can still lose the rotation race.
func (s *JWTService) ValidateRefreshToken(tokenString string) (*RefreshTokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &RefreshTokenClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeInvalidRefresh, "refresh token expired")
		}
		return nil, dErrors.New(dErrors.CodeInvalidRefresh, "invalid refresh token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeInvalidRefresh, "invalid refresh token")
	}

	claims, ok := parsed.Claims.(*RefreshTokenClaims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidRefresh, "invalid refresh token claims")
	}

	if claims.TokenKind != refreshTokenKind {
		return nil, dErrors.New(dErrors.CodeInvalidRefresh, "not a refresh token")
	}
	if claims.PrincipalID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidRefresh, "invalid refresh token claims")
	}

	return claims, nil
}

// HandleOf derives the storage handle for a refresh token: the hex-encoded
// SHA-256 of the token string. Comparing handles instead of tokens keeps raw
// tokens out of the store.
func HandleOf(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
