package audit

import "strings"

// resourceRule binds a path fragment to a resource category and its
// verb-derived actions. First matching rule wins, so more specific fragments
// come first.
type resourceRule struct {
	fragment     string
	resource     ResourceType
	create       Action
	update       Action
	delete       Action
	statusChange Action
}

var resourceRules = []resourceRule{
	{fragment: "/placement-drives", resource: ResourcePlacementDrive,
		create: ActionPlacementDriveCreate, update: ActionPlacementDriveUpdate, delete: ActionPlacementDriveDelete},
	{fragment: "/announcements", resource: ResourceAnnouncement,
		create: ActionAnnouncementCreate, update: ActionAnnouncementUpdate, delete: ActionAnnouncementDelete},
	{fragment: "/applications", resource: ResourceApplication,
		create: ActionApplicationSubmit, update: ActionApplicationUpdate},
	{fragment: "/students", resource: ResourceStudentData,
		update: ActionStudentProfileUpdate},
	{fragment: "/events", resource: ResourceEvent,
		create: ActionEventCreate, update: ActionEventUpdate, delete: ActionEventDelete},
	{fragment: "/users", resource: ResourceUser,
		create: ActionUserCreate, update: ActionUserUpdate, delete: ActionUserDelete, statusChange: ActionUserStatusChange},
	{fragment: "/jobs", resource: ResourceJob,
		create: ActionJobCreate, update: ActionJobUpdate, delete: ActionJobDelete, statusChange: ActionJobStatusChange},
}

// sensitiveReadFragments is the allow-list of read endpoints that are
// recorded like mutations. Everything else on GET is skipped.
var sensitiveReadFragments = []string{
	"/export",
	"/audit",
	"/statistics",
	"/reports",
}

// ShouldRecord reports whether a request with this method and path belongs in
// the trail. Reads are skipped except for the sensitive allow-list.
func ShouldRecord(method, path string) bool {
	if method != "GET" && method != "HEAD" {
		return true
	}
	lower := strings.ToLower(path)
	for _, fragment := range sensitiveReadFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// DeriveAction maps (method, path) onto the closed taxonomy.
func DeriveAction(method, path string) Action {
	lower := strings.ToLower(path)

	switch {
	case strings.Contains(lower, "/login"):
		return ActionLogin
	case strings.Contains(lower, "/logout"):
		return ActionLogout
	case strings.Contains(lower, "/change-password"):
		return ActionPasswordChange
	case strings.Contains(lower, "/reset-password"):
		return ActionPasswordReset
	}

	// Registration is path-keyed, not verb-keyed, so that import/export
	// endpoints that mention students still classify by their own rules.
	if strings.Contains(lower, "/students") && strings.Contains(lower, "/register") {
		return ActionStudentRegister
	}

	if rule, ok := matchResource(lower); ok {
		switch method {
		case "POST":
			if rule.create != "" {
				return rule.create
			}
		case "PUT", "PATCH":
			if rule.statusChange != "" && strings.Contains(lower, "/status") {
				return rule.statusChange
			}
			switch rule.resource {
			case ResourceApplication:
				if strings.Contains(lower, "/approve") {
					return ActionApplicationApprove
				}
				if strings.Contains(lower, "/reject") {
					return ActionApplicationReject
				}
			}
			if rule.update != "" {
				return rule.update
			}
		case "DELETE":
			if rule.delete != "" {
				return rule.delete
			}
		}
	}

	switch {
	case strings.Contains(lower, "/upload"):
		if method == "DELETE" {
			return ActionFileDelete
		}
		return ActionFileUpload
	case strings.Contains(lower, "/export"):
		return ActionDataExport
	case strings.Contains(lower, "/import"):
		return ActionDataImport
	case strings.Contains(lower, "/settings"):
		return ActionSettingsChange
	case strings.Contains(lower, "/permissions"):
		return ActionPermissionChange
	case strings.Contains(lower, "/audit"):
		return ActionAuditAccess
	}

	return ActionOther
}

// DeriveResourceType maps a path onto a resource category.
func DeriveResourceType(path string) ResourceType {
	lower := strings.ToLower(path)
	if rule, ok := matchResource(lower); ok {
		return rule.resource
	}
	switch {
	case strings.Contains(lower, "/upload"):
		return ResourceFile
	case strings.Contains(lower, "/settings"):
		return ResourceSettings
	case strings.Contains(lower, "/audit"):
		return ResourceAuditLog
	}
	return ResourceOther
}

func matchResource(lowerPath string) (resourceRule, bool) {
	for _, rule := range resourceRules {
		if strings.Contains(lowerPath, rule.fragment) {
			return rule, true
		}
	}
	return resourceRule{}, false
}
