package models

// Role is the closed set of principal roles. Exactly one per principal,
// immutable after creation.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleModerator  Role = "moderator"
	RoleStudent    Role = "student"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleModerator, RoleStudent:
		return true
	}
	return false
}

// HighestPrivilege reports whether this is the most privileged role in the
// system. Used by the audit classifier for the critical-severity escalation.
func (r Role) HighestPrivilege() bool { return r == RoleSuperadmin }

// LowestPrivilege reports whether this is the least privileged role in the
// system. Used by the audit classifier's suspicion rules.
func (r Role) LowestPrivilege() bool { return r == RoleStudent }

// PrincipalStatus is the account lifecycle status.
type PrincipalStatus string

const (
	StatusActive   PrincipalStatus = "active"
	StatusInactive PrincipalStatus = "inactive"
	StatusPending  PrincipalStatus = "pending"
)

func (s PrincipalStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending:
		return true
	}
	return false
}
