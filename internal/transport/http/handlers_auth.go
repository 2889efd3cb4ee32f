package httptransport

import (
	"net/http"

	identitymodels "campusplace/internal/identity/models"
	"campusplace/internal/transport/http/json"
	"campusplace/internal/transport/http/shared"
	dErrors "campusplace/pkg/domain-errors"
)

const refreshCookieName = "refresh_token"

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req identitymodels.LoginRequest
	if err := json.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.identity.Login(r.Context(), &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	h.setRefreshCookie(w, r, result.RefreshToken)
	json.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	// The refresh token normally arrives on its cookie; a body field is
	// accepted for non-browser clients.
	var req identitymodels.RefreshRequest
	if err := json.DecodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		if cookie, cookieErr := r.Cookie(refreshCookieName); cookieErr == nil {
			req.RefreshToken = cookie.Value
		}
	}

	result, err := h.identity.Refresh(r.Context(), &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	h.setRefreshCookie(w, r, result.RefreshToken)
	json.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if p == nil {
		writeUnauthorized(w, "Missing or invalid Authorization header")
		return
	}

	if err := h.identity.Logout(r.Context(), p.ID); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.clearRefreshCookie(w, r)
	json.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if p == nil {
		writeUnauthorized(w, "Missing or invalid Authorization header")
		return
	}
	json.WriteJSON(w, http.StatusOK, identitymodels.MeFromPrincipal(p))
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if p == nil {
		writeUnauthorized(w, "Missing or invalid Authorization header")
		return
	}

	var req identitymodels.ChangePasswordRequest
	if err := json.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.identity.ChangePassword(r.Context(), p.ID, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.clearRefreshCookie(w, r)
	json.WriteJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

func (h *Handler) handlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	var req identitymodels.ResetRequest
	if err := json.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	// The token goes out through the mail collaborator, never the response;
	// the reply is identical whether or not the account exists.
	if _, err := h.identity.RequestPasswordReset(r.Context(), &req); err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(r.Context(), "password reset request failed", "error", err)
	}
	json.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "if the account exists, reset instructions have been sent",
	})
}

func (h *Handler) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req identitymodels.ResetConfirmRequest
	if err := json.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.identity.ConfirmPasswordReset(r.Context(), &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	json.WriteJSON(w, http.StatusOK, map[string]string{"message": "password reset"})
}

func (h *Handler) handleCaptcha(w http.ResponseWriter, r *http.Request) {
	captchaID, question, err := h.identity.Captcha()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	json.WriteJSON(w, http.StatusOK, map[string]string{
		"captcha_id": captchaID,
		"question":   question,
	})
}

// handleTenants lists active tenants so the login form can offer the
// tenant_id hint that disambiguates identifiers reused across colleges.
func (h *Handler) handleTenants(w http.ResponseWriter, r *http.Request) {
	if h.tenants == nil {
		json.WriteJSON(w, http.StatusOK, []tenantSummary{})
		return
	}

	tenants, err := h.tenants.ListActive(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	out := make([]tenantSummary, 0, len(tenants))
	for _, tenant := range tenants {
		out = append(out, tenantSummary{
			ID:   tenant.ID.String(),
			Name: tenant.Name,
			Code: tenant.Code,
		})
	}
	json.WriteJSON(w, http.StatusOK, out)
}

type tenantSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/api/auth",
		MaxAge:   int(h.refreshCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}
