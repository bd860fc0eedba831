package entity

type PartyRole string

const (
	RoleMember  PartyRole = "member"
	RoleArbiter PartyRole = "arbiter"
)

// Party is a marketplace account: a seeker, a provider, or a platform
// arbiter. Registration and profiles live outside this service; this is
// the slice needed for authorization checks.
type Party struct {
	Base
	Name     string    `db:"name"`
	Email    string    `db:"email"`
	Phone    *string   `db:"phone"`
	Role     PartyRole `db:"role"`
	IsActive bool      `db:"is_active"`
}
