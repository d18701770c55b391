package domain

import "time"

// User is a backoffice account.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	Active       bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
}

// IsActiveOwner reports whether u counts towards the owner quorum.
func (u *User) IsActiveOwner() bool {
	return u != nil && u.Role == RoleOwner && u.Active
}
