package types

import "github.com/NICOLA-200/pms-restful/pkg/enums"

// Principal identifies the authenticated caller for core operations.
type Principal struct {
	UserID int64
	Role   enums.Role
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == enums.RoleAdmin
}
