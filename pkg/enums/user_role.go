package enums

import "fmt"

// UserRole is the closed set of roles a user can hold. Roles are assigned at
// registration and never change afterwards.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleAdmin    UserRole = "admin"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleCustomer, UserRoleAdmin:
		return true
	default:
		return false
	}
}

func ParseUserRole(value string) (UserRole, error) {
	role := UserRole(value)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", value)
	}
	return role, nil
}
