package audit

import "strings"

// Classification is the derived outcome triple for one entry. The rules are
// deterministic and applied in a fixed order, so the same request snapshot
// always classifies identically.
type Classification struct {
	Status     Status
	Severity   Severity
	Suspicious bool
}

// Classify derives status, severity and the suspicion flag from the observed
// HTTP status code, the action, and the actor's role.
//
// Order matters: status first, then severity escalations from low upward,
// then the suspicion checks. superadmin is the highest-privilege role and
// student the lowest; the role parameter is the string form carried in the
// access token.
func Classify(statusCode int, action Action, actorRole string) Classification {
	c := Classification{
		Status:   statusOf(statusCode),
		Severity: SeverityLow,
	}

	name := string(action)
	isDelete := strings.Contains(name, "delete")

	if isDelete {
		c.Severity = SeverityMedium
	}
	if isDelete || strings.Contains(name, "status_change") {
		c.Severity = SeverityHigh
	}
	if c.Status == StatusFailure && actorRole == "superadmin" {
		c.Severity = SeverityCritical
	}

	switch {
	case statusCode == 403:
		c.Suspicious = true
	case statusCode == 401:
		c.Suspicious = true
	case actorRole == "student" && isDelete:
		c.Suspicious = true
	}

	return c
}

func statusOf(code int) Status {
	switch {
	case code >= 200 && code < 300:
		return StatusSuccess
	case code >= 400 && code < 500:
		return StatusWarning
	default:
		return StatusFailure
	}
}
