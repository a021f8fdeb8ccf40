package model

// Role gates administrative operations.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleCashier Role = "Cashier"
)

// User is a cashier or admin account. PasswordHash is bcrypt and is stripped
// from every response leaving the core; BranchIDs must be non-empty for a
// usable account (migration v5 backfills legacy accounts).
type User struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	PasswordHash string   `json:"passwordHash,omitempty"`
	Role         Role     `json:"role"`
	BranchIDs    []string `json:"branchIds"`
}

// Public returns a copy safe to hand to callers outside the core.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}
