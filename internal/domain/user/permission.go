package user

import "slices"

type Permission string

const (
	// Attendance
	PermissionAttendanceViewOwn Permission = "attendance.view_own"
	PermissionAttendanceCreate  Permission = "attendance.create"
	PermissionAttendanceApprove Permission = "attendance.approve"

	// Stats
	PermissionStatsViewOwn Permission = "stats.view_own"
	PermissionStatsViewAll Permission = "stats.view_all"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermissionAttendanceViewOwn,
		PermissionAttendanceCreate,
		PermissionAttendanceApprove,
		PermissionStatsViewOwn,
		PermissionStatsViewAll,
	},
	RoleManager: {
		PermissionAttendanceViewOwn,
		PermissionAttendanceCreate,
		PermissionAttendanceApprove,
		PermissionStatsViewOwn,
		PermissionStatsViewAll,
	},
	RoleEmployee: {
		PermissionAttendanceViewOwn,
		PermissionAttendanceCreate,
		PermissionStatsViewOwn,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	return slices.Contains(RolePermissions[role], permission)
}
