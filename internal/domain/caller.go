package domain

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleBuyer, RoleVendor, RoleAdmin:
		return true
	default:
		return false
	}
}

// CallerContext is the authenticated identity attached to every coordinator
// call. It is populated once by the auth middleware and never mutated mid-flow.
type CallerContext struct {
	ID   string
	Role Role
	Name string
}

func (c CallerContext) IsAdmin() bool { return c.Role == RoleAdmin }
