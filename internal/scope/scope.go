// Package scope decides whether a principal may touch a resource, based only
// on tenant and department tags. It is action-agnostic: gating what a role
// may do (e.g. students never delete) is the caller's job. The resolver is
// pure computation over already-fetched data and never blocks.
package scope

import (
	"campusplace/internal/identity/models"
	id "campusplace/pkg/domain"
)

// Tag is the scope label attached to a resource. A nil Department marks a
// tenant-wide resource (e.g. an announcement) visible to every moderator in
// the tenant.
type Tag struct {
	TenantID   id.TenantID
	Department string
}

// Actor is the authenticated side of a decision, derived from access token
// claims. TenantID is nil for superadmins.
type Actor struct {
	Role       models.Role
	TenantID   id.TenantID
	Department string
}

// Outcome is the tri-state result of a decision. The two deny variants exist
// so the transport can hide cross-tenant resources entirely (404) while
// same-tenant department denials stay explicit (403).
type Outcome string

const (
	Allow         Outcome = "allow"
	DenyNotFound  Outcome = "deny_not_found"
	DenyForbidden Outcome = "deny_forbidden"
)

// Decision carries the outcome plus a reason for logs and audit entries.
type Decision struct {
	Outcome Outcome
	Reason  string
}

func (d Decision) Allowed() bool { return d.Outcome == Allow }

// Resolve applies the ordered, short-circuiting scope rules:
//
//  1. superadmin: always allowed, any tags
//  2. tenant mismatch: denied as not-found (cross-tenant hiding)
//  3. admin: allowed anywhere within the tenant
//  4. moderator: allowed iff departments match; an untagged resource skips
//     the check rather than failing it
//  5. student: tenant match is sufficient here, capability gating happens
//     at the call site
func Resolve(actor Actor, resource Tag) Decision {
	if actor.Role == models.RoleSuperadmin {
		return Decision{Outcome: Allow, Reason: "superadmin"}
	}

	if actor.TenantID != resource.TenantID {
		return Decision{Outcome: DenyNotFound, Reason: "cross-tenant"}
	}

	switch actor.Role {
	case models.RoleAdmin:
		return Decision{Outcome: Allow, Reason: "tenant admin"}
	case models.RoleModerator:
		if resource.Department == "" || resource.Department == actor.Department {
			return Decision{Outcome: Allow, Reason: "department match"}
		}
		return Decision{Outcome: DenyForbidden, Reason: "cross-department"}
	case models.RoleStudent:
		return Decision{Outcome: Allow, Reason: "same tenant"}
	}

	return Decision{Outcome: DenyForbidden, Reason: "unknown role"}
}
