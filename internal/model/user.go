package model

import "time"

// Role identifies what a user is allowed to do on the marketplace. The set
// is closed: every role-gated decision in the middleware and the route
// guard is a membership test over these three values.
type Role string

const (
	RoleFarmer Role = "farmer" // lists produce, receives bids
	RoleTrader Role = "trader" // browses produce, places bids
	RoleAdmin  Role = "admin"  // moderates users, products and transactions
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleFarmer, RoleTrader, RoleAdmin:
		return true
	default:
		return false
	}
}

// UserStatus mirrors the users.status column.
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
	UserPending  UserStatus = "pending"
	UserBlocked  UserStatus = "blocked"
)

// Suspended reports whether the account has been taken out of service by
// an admin. Suspended users cannot sign in or refresh a session.
func (s UserStatus) Suspended() bool {
	return s == UserInactive || s == UserBlocked
}

// User mirrors the `users` table. It carries only identity and credential
// data; application attributes (name, phone, location) live on Profile.
type User struct {
	ID           uint64     // users.id
	Email        string     // users.email
	PasswordHash string     // users.password_hash
	Role         Role       // users.role
	Status       UserStatus // users.status
	CreatedAt    time.Time  // users.created_at
	UpdatedAt    time.Time  // users.updated_at
}

// Profile mirrors the `profiles` table, keyed by the owning user's id.
// A row is created by the sign-up trigger from the signup metadata and is
// the source of the attributes merged into the in-memory AppUser.
type Profile struct {
	ID       uint64  // profiles.id == users.id
	Name     string  // profiles.name
	Phone    *string // profiles.phone (nullable)
	Role     Role    // profiles.role
	Location *string // profiles.location (nullable)
}

// RefreshToken models a row in `refresh_tokens`. Only the SHA-256 hash of
// the raw token is persisted.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
