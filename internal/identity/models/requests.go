package models

import s "campusplace/pkg/string"

// LoginRequest carries one credential pair plus an optional tenant
// disambiguator. Identifier matches either username or email,
// case-insensitively.
type LoginRequest struct {
	Identifier    string `json:"identifier" validate:"required,notblank,max=255"`
	Password      string `json:"password" validate:"required,min=1,max=255"`
	TenantID      string `json:"tenant_id,omitempty" validate:"omitempty,uuid"`
	CaptchaID     string `json:"captcha_id,omitempty" validate:"omitempty,max=64"`
	CaptchaAnswer string `json:"captcha_answer,omitempty" validate:"omitempty,max=16"`
}

// Normalize lower-cases the identifier so lookups are case-insensitive.
// The password is left untouched.
func (r *LoginRequest) Normalize() {
	r.Identifier = s.NormalizeIdentifier(r.Identifier)
	s.TrimStrings(&r.TenantID, &r.CaptchaID, &r.CaptchaAnswer)
}

// RefreshRequest exchanges a live refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required,notblank"`
}

// ChangePasswordRequest is issued by an authenticated principal.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,min=1"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=255"`
}

// ResetRequest starts the password reset flow. It always succeeds from the
// caller's perspective so account existence is not revealed.
type ResetRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

func (r *ResetRequest) Normalize() {
	r.Email = s.NormalizeIdentifier(r.Email)
}

// ResetConfirmRequest completes the reset flow with a single-use nonce.
type ResetConfirmRequest struct {
	Nonce       string `json:"nonce" validate:"required,notblank"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=255"`
}
