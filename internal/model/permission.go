package model

// Role is the account type of a portal user.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleFaculty   Role = "FACULTY"
	RoleLibrarian Role = "LIBRARIAN"
	RoleStudent   Role = "STUDENT"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFaculty, RoleLibrarian, RoleStudent:
		return true
	}
	return false
}

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionMediaUpload allows uploading profile photos.
	PermissionMediaUpload Permission = "media:upload"

	// PermissionUsersRead allows viewing staff and user accounts.
	PermissionUsersRead Permission = "users:read"

	// PermissionUsersWrite allows creating, updating and deleting user accounts.
	PermissionUsersWrite Permission = "users:write"

	// PermissionDepartmentsRead allows viewing departments.
	PermissionDepartmentsRead Permission = "departments:read"

	// PermissionDepartmentsWrite allows managing departments.
	PermissionDepartmentsWrite Permission = "departments:write"

	// PermissionClassesRead allows viewing classes and rosters.
	PermissionClassesRead Permission = "classes:read"

	// PermissionClassesWrite allows managing classes.
	PermissionClassesWrite Permission = "classes:write"

	// PermissionStudentsRead allows viewing student profiles.
	PermissionStudentsRead Permission = "students:read"

	// PermissionStudentsWrite allows creating, importing and updating students.
	PermissionStudentsWrite Permission = "students:write"

	// PermissionAttendanceRead allows viewing class attendance.
	PermissionAttendanceRead Permission = "attendance:read"

	// PermissionAttendanceWrite allows marking attendance.
	PermissionAttendanceWrite Permission = "attendance:write"

	// PermissionLibraryRead allows viewing the catalogue and all issues.
	PermissionLibraryRead Permission = "library:read"

	// PermissionLibraryWrite allows managing books, issues, returns and fines.
	PermissionLibraryWrite Permission = "library:write"

	// PermissionGroupsWrite allows creating groups.
	PermissionGroupsWrite Permission = "groups:write"

	// PermissionMeetingsWrite allows scheduling faculty meetings.
	PermissionMeetingsWrite Permission = "meetings:write"

	// PermissionWorkloadRead allows viewing any faculty workload and reports.
	PermissionWorkloadRead Permission = "workload:read"

	// PermissionWorkloadWrite allows managing faculty assignments.
	PermissionWorkloadWrite Permission = "workload:write"

	// PermissionIDCardsWrite allows issuing and revoking ID cards.
	PermissionIDCardsWrite Permission = "idcards:write"

	// PermissionSettingsRead allows viewing application settings.
	PermissionSettingsRead Permission = "settings:read"

	// PermissionSettingsWrite allows editing application settings.
	PermissionSettingsWrite Permission = "settings:write"

	// PermissionDashboardRead allows viewing the admin dashboard.
	PermissionDashboardRead Permission = "dashboard:read"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionMediaUpload,
	PermissionUsersRead,
	PermissionUsersWrite,
	PermissionDepartmentsRead,
	PermissionDepartmentsWrite,
	PermissionClassesRead,
	PermissionClassesWrite,
	PermissionStudentsRead,
	PermissionStudentsWrite,
	PermissionAttendanceRead,
	PermissionAttendanceWrite,
	PermissionLibraryRead,
	PermissionLibraryWrite,
	PermissionGroupsWrite,
	PermissionMeetingsWrite,
	PermissionWorkloadRead,
	PermissionWorkloadWrite,
	PermissionIDCardsWrite,
	PermissionSettingsRead,
	PermissionSettingsWrite,
	PermissionDashboardRead,
}

// RolePermissions maps each role to the permissions embedded in its tokens.
var RolePermissions = map[Role][]Permission{
	RoleAdmin: AllPermissions,
	RoleFaculty: {
		PermissionMediaUpload,
		PermissionDepartmentsRead,
		PermissionClassesRead,
		PermissionStudentsRead,
		PermissionAttendanceRead,
		PermissionAttendanceWrite,
		PermissionGroupsWrite,
		PermissionMeetingsWrite,
	},
	RoleLibrarian: {
		PermissionMediaUpload,
		PermissionStudentsRead,
		PermissionLibraryRead,
		PermissionLibraryWrite,
	},
	RoleStudent: {
		PermissionMediaUpload,
	},
}

// PermissionsFor returns the permission codes granted to a role.
func PermissionsFor(role Role) []string {
	perms := RolePermissions[role]
	codes := make([]string, 0, len(perms))
	for _, p := range perms {
		codes = append(codes, string(p))
	}
	return codes
}
