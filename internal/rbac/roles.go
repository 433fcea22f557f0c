package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleBuyer   = "buyer"
	RoleSeller  = "seller"
	RoleSupport = "support"
	RoleAdmin   = "admin"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func IsKnownRole(role string) bool {
	switch role {
	case RoleBuyer, RoleSeller, RoleSupport, RoleAdmin:
		return true
	default:
		return false
	}
}
