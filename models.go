package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the credential store row. PasswordHash never crosses out of the
// store boundary except for verification inside the action handlers.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Role          UserRole   `bun:"role,notnull" json:"role,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// SessionUser is the projection of User that is safe to embed in a token:
// everything except the password hash. It is the only user shape allowed to
// cross into business-action code.
type SessionUser struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name,omitempty"`
	Email     string     `json:"email"`
	Role      UserRole   `json:"role"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// SessionUser returns the non-sensitive projection of the row.
func (u *User) SessionUser() SessionUser {
	return SessionUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NewUser carries the fields needed to create an account.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     UserRole
}

// Touch bumps UpdatedAt before a persisted mutation.
func (u *User) Touch() *User {
	now := time.Now()
	u.UpdatedAt = &now
	return u
}
