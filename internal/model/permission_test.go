package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleFaculty, RoleLibrarian, RoleStudent} {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("admin").Valid())
	assert.False(t, Role("").Valid())
}

func TestPermissionsFor(t *testing.T) {
	assert.Len(t, PermissionsFor(RoleAdmin), len(AllPermissions))
	assert.Equal(t, []string{string(PermissionMediaUpload)}, PermissionsFor(RoleStudent))
	assert.Empty(t, PermissionsFor(Role("GUEST")))

	librarian := PermissionsFor(RoleLibrarian)
	assert.Contains(t, librarian, string(PermissionLibraryWrite))
	assert.NotContains(t, librarian, string(PermissionAttendanceWrite))
}

func TestRolePermissionsAreKnown(t *testing.T) {
	known := make(map[Permission]bool, len(AllPermissions))
	for _, p := range AllPermissions {
		known[p] = true
	}
	for role, perms := range RolePermissions {
		for _, p := range perms {
			assert.True(t, known[p], "%s grants unknown permission %s", role, p)
		}
	}
}
