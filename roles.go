package auth

// UserRole is the user's role
type UserRole = string

const (
	// RoleCustomer is the default storefront account role
	RoleCustomer UserRole = "customer"
	// RoleAdmin can manage the catalog and other accounts
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleCustomer, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}

// RoleSatisfies checks whether role grants the capability required by
// minRole. Admin satisfies everything; customer only satisfies customer.
func RoleSatisfies(role, minRole UserRole) bool {
	hierarchy := map[UserRole]int{
		RoleCustomer: 0,
		RoleAdmin:    1,
	}

	current, ok := hierarchy[role]
	if !ok {
		return false
	}

	min, ok := hierarchy[minRole]
	if !ok {
		return false
	}

	return current >= min
}
