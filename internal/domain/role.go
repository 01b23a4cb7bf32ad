package domain

import (
	"encoding/json"
	"fmt"
)

// Role is the closed set of customer roles issued by the marketplace API.
// The storefront never computes or alters a role; it only selects behavior
// (price tier, navigation) based on it.
type Role string

const (
	RoleRetail          Role = "retail"
	RoleWholesaleLevel1 Role = "wholesale_level1"
	RoleWholesaleLevel2 Role = "wholesale_level2"
	RoleWholesaleLevel3 Role = "wholesale_level3"
	RoleTrainer         Role = "trainer"
	RoleFederationRep   Role = "federation_rep"
	RoleAdmin           Role = "admin"
)

// Roles returns all valid roles.
func Roles() []Role {
	return []Role{
		RoleRetail,
		RoleWholesaleLevel1,
		RoleWholesaleLevel2,
		RoleWholesaleLevel3,
		RoleTrainer,
		RoleFederationRep,
		RoleAdmin,
	}
}

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleRetail, RoleWholesaleLevel1, RoleWholesaleLevel2, RoleWholesaleLevel3,
		RoleTrainer, RoleFederationRep, RoleAdmin:
		return true
	}
	return false
}

// IsWholesale reports whether the role is any of the wholesale tiers.
func (r Role) IsWholesale() bool {
	switch r {
	case RoleWholesaleLevel1, RoleWholesaleLevel2, RoleWholesaleLevel3:
		return true
	}
	return false
}

// UnmarshalJSON rejects roles outside the closed set so an unexpected value
// from the API fails loudly instead of silently flowing into price selection.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	role := Role(s)
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", s)
	}
	*r = role
	return nil
}
