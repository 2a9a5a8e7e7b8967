package domain

// Role enumerates the directory's role kinds.
type Role string

const (
	RoleSuperuser   Role = "SUPERUSER"
	RoleSales       Role = "SALES"
	RoleClientAdmin Role = "CLIENT_ADMIN"
	RoleClientUser  Role = "CLIENT_USER"
)

// Priority returns the fixed rank of the role. Unknown roles rank 0.
func (r Role) Priority() int {
	switch r {
	case RoleSuperuser:
		return 4
	case RoleSales:
		return 3
	case RoleClientAdmin:
		return 2
	case RoleClientUser:
		return 1
	default:
		return 0
	}
}

// IsValid checks if the role is one of the four known kinds.
func (r Role) IsValid() bool {
	return r.Priority() > 0
}

// AllRoles returns every role from highest to lowest priority.
func AllRoles() []Role {
	return []Role{RoleSuperuser, RoleSales, RoleClientAdmin, RoleClientUser}
}
