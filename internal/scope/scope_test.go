package scope

import (
	"testing"

	"campusplace/internal/identity/models"
	id "campusplace/pkg/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var (
	tenant1 = id.TenantID(uuid.New())
	tenant2 = id.TenantID(uuid.New())
)

func TestResolveModeratorMatrix(t *testing.T) {
	moderator := Actor{Role: models.RoleModerator, TenantID: tenant1, Department: "CS"}

	tests := []struct {
		name     string
		resource Tag
		want     Outcome
	}{
		{"same tenant same department", Tag{TenantID: tenant1, Department: "CS"}, Allow},
		{"same tenant other department", Tag{TenantID: tenant1, Department: "ME"}, DenyForbidden},
		{"other tenant same department", Tag{TenantID: tenant2, Department: "CS"}, DenyNotFound},
		{"other tenant other department", Tag{TenantID: tenant2, Department: "ME"}, DenyNotFound},
		{"same tenant untagged resource", Tag{TenantID: tenant1}, Allow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(moderator, tt.resource).Outcome)
		})
	}
}

func TestResolveSuperadminAlwaysAllowed(t *testing.T) {
	superadmin := Actor{Role: models.RoleSuperadmin}

	tags := []Tag{
		{TenantID: tenant1, Department: "CS"},
		{TenantID: tenant2, Department: "ME"},
		{},
	}
	for _, tag := range tags {
		assert.True(t, Resolve(superadmin, tag).Allowed())
	}
}

func TestResolveAdminSeesWholeTenant(t *testing.T) {
	admin := Actor{Role: models.RoleAdmin, TenantID: tenant1}

	assert.Equal(t, Allow, Resolve(admin, Tag{TenantID: tenant1, Department: "CS"}).Outcome)
	assert.Equal(t, Allow, Resolve(admin, Tag{TenantID: tenant1, Department: "ME"}).Outcome)
	assert.Equal(t, DenyNotFound, Resolve(admin, Tag{TenantID: tenant2}).Outcome)
}

func TestResolveStudentGatedByTenantOnly(t *testing.T) {
	student := Actor{Role: models.RoleStudent, TenantID: tenant1, Department: "CS"}

	// Department tags do not affect students; they are gated per-action at
	// the call site.
	assert.Equal(t, Allow, Resolve(student, Tag{TenantID: tenant1, Department: "ME"}).Outcome)
	assert.Equal(t, DenyNotFound, Resolve(student, Tag{TenantID: tenant2, Department: "CS"}).Outcome)
}

func TestResolveCrossTenantBeatsRoleRules(t *testing.T) {
	// Tenant mismatch short-circuits before any role-specific handling, so a
	// moderator with a matching department still gets not-found.
	moderator := Actor{Role: models.RoleModerator, TenantID: tenant1, Department: "CS"}
	decision := Resolve(moderator, Tag{TenantID: tenant2, Department: "CS"})
	assert.Equal(t, DenyNotFound, decision.Outcome)
	assert.Equal(t, "cross-tenant", decision.Reason)
}

func TestResolveUnknownRoleDenied(t *testing.T) {
	actor := Actor{Role: models.Role("ghost"), TenantID: tenant1}
	assert.Equal(t, DenyForbidden, Resolve(actor, Tag{TenantID: tenant1}).Outcome)
}
