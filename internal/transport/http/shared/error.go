package shared

import (
	"errors"
	"net/http"

	"campusplace/internal/transport/http/json"
	dErrors "campusplace/pkg/domain-errors"
)

// WriteError centralizes domain error translation to HTTP responses.
// It translates transport-agnostic domain errors into HTTP status codes and error responses.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		status := DomainCodeToHTTPStatus(domainErr.Code)
		response := map[string]string{
			"error": DomainCodeToHTTPCode(domainErr.Code),
		}
		if domainErr.Message != "" {
			response["error_description"] = domainErr.Message
		}
		json.WriteJSON(w, status, response)
		return
	}

	// Fallback for unexpected errors
	json.WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
// Cross-tenant denials map to 404 so foreign resources are indistinguishable
// from absent ones.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound, dErrors.CodeCrossTenantDenied:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeAmbiguousTenant:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized, dErrors.CodeInvalidCredentials, dErrors.CodeInvalidRefresh:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden, dErrors.CodeCrossDepartmentDenied, dErrors.CodeAccountInactive, dErrors.CodeTenantInactive:
		return http.StatusForbidden
	case dErrors.CodeAccountLocked:
		return http.StatusLocked
	case dErrors.CodeInternal, dErrors.CodeInvariantViolation:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to HTTP error codes (for JSON response).
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound, dErrors.CodeCrossTenantDenied:
		return "not_found"
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeAmbiguousTenant:
		return "ambiguous_tenant"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeUnauthorized:
		return "unauthorized"
	case dErrors.CodeInvalidCredentials:
		return "invalid_credentials"
	case dErrors.CodeInvalidRefresh:
		return "invalid_refresh"
	case dErrors.CodeAccountLocked:
		return "account_locked"
	case dErrors.CodeAccountInactive:
		return "account_inactive"
	case dErrors.CodeTenantInactive:
		return "tenant_inactive"
	case dErrors.CodeForbidden, dErrors.CodeCrossDepartmentDenied:
		return "forbidden"
	case dErrors.CodeInternal:
		return "internal_error"
	default:
		return "internal_error"
	}
}
