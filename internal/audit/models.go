package audit

import (
	"time"

	id "campusplace/pkg/domain"
)

// Entry is one immutable trail record. Actor fields are denormalized at write
// time so the entry survives later mutation or deletion of the actor.
type Entry struct {
	ID       id.EntryID  `json:"id"`
	TenantID id.TenantID `json:"tenant_id,omitempty"` // nil for superadmin actors

	ActorID    id.PrincipalID `json:"actor_id"`
	ActorRole  string         `json:"actor_role"`
	ActorName  string         `json:"actor_name,omitempty"`
	ActorEmail string         `json:"actor_email,omitempty"`

	Action       Action       `json:"action"`
	ResourceType ResourceType `json:"resource_type,omitempty"`
	ResourceID   string       `json:"resource_id,omitempty"`
	ResourceName string       `json:"resource_name,omitempty"`

	Method     string        `json:"method"`
	Path       string        `json:"path"`
	RemoteAddr string        `json:"remote_addr,omitempty"`
	ClientName string        `json:"client_name,omitempty"` // derived from User-Agent
	Duration   time.Duration `json:"duration"`

	Status     Status   `json:"status"`
	Severity   Severity `json:"severity"`
	Suspicious bool     `json:"suspicious"`
	Error      string   `json:"error,omitempty"`

	// Changes is the only piece of an entry that is not covered by the
	// write-once rule; it is kept separate from the classified fields.
	Changes *Changes `json:"changes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Changes captures a before/after diff for update actions.
type Changes struct {
	Before        map[string]any `json:"before,omitempty"`
	After         map[string]any `json:"after,omitempty"`
	FieldsChanged []string       `json:"fields_changed,omitempty"`
}

// Action is the closed taxonomy of auditable actions.
type Action string

const (
	ActionLogin          Action = "login"
	ActionLoginFailed    Action = "login_failed"
	ActionLogout         Action = "logout"
	ActionPasswordChange Action = "password_change"
	ActionPasswordReset  Action = "password_reset"

	ActionUserCreate       Action = "user_create"
	ActionUserUpdate       Action = "user_update"
	ActionUserDelete       Action = "user_delete"
	ActionUserStatusChange Action = "user_status_change"

	ActionJobCreate       Action = "job_create"
	ActionJobUpdate       Action = "job_update"
	ActionJobDelete       Action = "job_delete"
	ActionJobStatusChange Action = "job_status_change"

	ActionApplicationSubmit  Action = "application_submit"
	ActionApplicationUpdate  Action = "application_update"
	ActionApplicationApprove Action = "application_approve"
	ActionApplicationReject  Action = "application_reject"

	ActionStudentRegister      Action = "student_register"
	ActionStudentProfileUpdate Action = "student_profile_update"

	ActionPlacementDriveCreate Action = "placement_drive_create"
	ActionPlacementDriveUpdate Action = "placement_drive_update"
	ActionPlacementDriveDelete Action = "placement_drive_delete"

	ActionAnnouncementCreate Action = "announcement_create"
	ActionAnnouncementUpdate Action = "announcement_update"
	ActionAnnouncementDelete Action = "announcement_delete"

	ActionEventCreate Action = "event_create"
	ActionEventUpdate Action = "event_update"
	ActionEventDelete Action = "event_delete"

	ActionFileUpload Action = "file_upload"
	ActionFileDelete Action = "file_delete"

	ActionDataExport       Action = "data_export"
	ActionDataImport       Action = "data_import"
	ActionSettingsChange   Action = "settings_change"
	ActionPermissionChange Action = "permission_change"
	ActionAuditAccess      Action = "audit_access"
	ActionOther            Action = "other"
)

// ResourceType categorizes the target of an action.
type ResourceType string

const (
	ResourceUser           ResourceType = "user"
	ResourceJob            ResourceType = "job"
	ResourceApplication    ResourceType = "application"
	ResourceStudentData    ResourceType = "student_data"
	ResourcePlacementDrive ResourceType = "placement_drive"
	ResourceAnnouncement   ResourceType = "announcement"
	ResourceEvent          ResourceType = "event"
	ResourceFile           ResourceType = "file"
	ResourceSettings       ResourceType = "settings"
	ResourceAuditLog       ResourceType = "audit_log"
	ResourceOther          ResourceType = "other"
)

// Status is the classified outcome of the observed request.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusFailure Status = "failure"
)

// Severity ranks how much attention an entry deserves.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)
