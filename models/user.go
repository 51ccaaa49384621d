package models

import "time"

// Role defines the set of allowed roles for a User.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Role           Role      `json:"role"`
	HashedPassword string    `json:"-"` // Never exposed in API responses
	CreatedAt      time.Time `json:"created_at"`
}
