package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Can approve attendance and view team stats
	RoleEmployee Role = "employee" // Regular employee
)
