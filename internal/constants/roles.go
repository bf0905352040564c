package constants

import (
	"database/sql/driver"
	"fmt"
)

// Role is a marketplace account role as issued by the backend.
type Role string

const (
	RoleAdmin  Role = "admin"
	RolePoster Role = "poster"
	RoleHunter Role = "hunter"
)

func (r Role) String() string { return string(r) }

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePoster, RoleHunter:
		return true
	}
	return false
}

// SelfServiceRoles are the roles offered on the registration form.
var SelfServiceRoles = []Role{RolePoster, RoleHunter}

/* ---------- DB adapters for the SQL session store ---------- */

// Scan implements the sql.Scanner interface
func (r *Role) Scan(src interface{}) error {
	if src == nil {
		*r = ""
		return nil
	}
	switch v := src.(type) {
	case string:
		*r = Role(v)
	case []byte:
		*r = Role(v)
	default:
		return fmt.Errorf("Role: cannot scan type %T", src)
	}
	return nil
}

// Value implements the driver.Valuer interface
func (r Role) Value() (driver.Value, error) { return string(r), nil }
