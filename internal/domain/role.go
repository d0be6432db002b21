package domain

// Role is the caller's role within a store.
type Role string

const (
	RoleOperator Role = "operator"
	RolePartner  Role = "partner"
)

func ParseRole(s string) Role {
	if Role(s) == RolePartner {
		return RolePartner
	}
	return RoleOperator
}

// SeesFinancials reports whether operator-only columns are shown to the role.
func (r Role) SeesFinancials() bool {
	return r != RolePartner
}
