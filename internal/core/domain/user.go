package domain

import (
	"strings"
	"time"
)

// Role is the single authorization attribute of a user.
type Role string

const (
	RoleClient       Role = "client"
	RolePhotographer Role = "photographer"
	RoleAdmin        Role = "admin"
)

// DefaultRole is assigned when registration does not name one.
const DefaultRole = RoleClient

// ParseRole converts s into a known Role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RolePhotographer, RoleAdmin:
		return true
	}
	return false
}

// SelfAssignable reports whether a user may pick r when registering.
func (r Role) SelfAssignable() bool {
	return r == RoleClient || r == RolePhotographer
}

func (r Role) String() string { return string(r) }

// User models an account holder. PasswordHash never leaves the process.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeEmail returns the comparison key used for email uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
