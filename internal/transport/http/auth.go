package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	identitymodels "campusplace/internal/identity/models"
	jwttoken "campusplace/internal/jwt_token"
	"campusplace/internal/transport/http/json"
	id "campusplace/pkg/domain"
	"campusplace/pkg/requestcontext"
)

// AccessTokenValidator verifies access tokens.
type AccessTokenValidator interface {
	ValidateAccessToken(tokenString string) (*jwttoken.AccessTokenClaims, error)
}

// PrincipalLoader resolves the token subject to a live principal. Loading on
// every request means a deactivation takes effect immediately instead of at
// access-token expiry, and gives the scope layer the department the token
// does not carry.
type PrincipalLoader interface {
	FindByID(ctx context.Context, principalID id.PrincipalID) (*identitymodels.Principal, error)
}

// RequireAuth validates the bearer token and attaches the resolved principal
// to the request context.
func RequireAuth(validator AccessTokenValidator, principals PrincipalLoader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token", "request_id", requestID)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateAccessToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			principalID, err := id.ParsePrincipalID(claims.PrincipalID)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed subject", "request_id", requestID)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			p, err := principals.FindByID(ctx, principalID)
			if err != nil || !p.IsActive() {
				logger.WarnContext(ctx, "unauthorized access - principal unavailable",
					"principal_id", claims.PrincipalID,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(withPrincipal(ctx, p)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	json.WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "unauthorized",
		"error_description": description,
	})
}
