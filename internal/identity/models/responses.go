package models

// This file contains transport-layer response models for JSON output.
// These are shaped for API responses and should avoid domain behavior.

// SessionResult is the response payload for login and refresh. The refresh
// token is never serialized; the transport delivers it on a separate
// http-only cookie channel.
type SessionResult struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"-"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`         // seconds until access token expiration
	RefreshExpiresIn int    `json:"refresh_expires_in"` // seconds until refresh token expiration
	Principal        *Me    `json:"principal"`
}

// Me is the caller-visible projection of a principal. Credential state is
// never included.
type Me struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FullName   string `json:"full_name,omitempty"`
	Role       string `json:"role"`
	TenantID   string `json:"tenant_id,omitempty"`
	Department string `json:"department,omitempty"`
}

// LockedResult reports an active lockout without leaking whether the
// submitted password was correct.
type LockedResult struct {
	RetryAfterSeconds int `json:"retry_after_seconds"`
}

// MeFromPrincipal builds the public projection.
func MeFromPrincipal(p *Principal) *Me {
	me := &Me{
		ID:         p.ID.String(),
		Username:   p.Username,
		Email:      p.Email,
		FullName:   p.FullName,
		Role:       string(p.Role),
		Department: p.Department,
	}
	if !p.TenantID.IsNil() {
		me.TenantID = p.TenantID.String()
	}
	return me
}
