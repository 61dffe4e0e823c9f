package enums

import "fmt"

// Role is the platform role carried by an authenticated actor.
type Role string

const (
	// RoleProvider lists surplus meals (small/medium food business).
	RoleProvider Role = "sme"
	// RoleClaimant reserves and collects meals (beneficiary organization).
	RoleClaimant Role = "ngo"
	RoleSponsor  Role = "sponsor"
	RoleAdmin    Role = "admin"
)

var validRoles = []Role{
	RoleProvider,
	RoleClaimant,
	RoleSponsor,
	RoleAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
