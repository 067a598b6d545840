// Package models defines the server-side records shared by repositories,
// services and transports.
package models

import "time"

// User is the identity snapshot returned to callers and embedded in session
// tokens. It never carries the password digest.
type User struct {
	ID             int64      `json:"id"`
	UserName       string     `json:"userName"`
	Email          string     `json:"email"`
	RoleID         int64      `json:"roleId"`
	RoleName       string     `json:"roleName"`
	FirstName      *string    `json:"firstName,omitempty"`
	LastName       *string    `json:"lastName,omitempty"`
	ProfilePicture *string    `json:"profilePicture,omitempty"`
	LastLoginDate  *time.Time `json:"lastLoginDate,omitempty"`
}

// Credential is the stored password digest of a user.
type Credential struct {
	UserID       int64
	PasswordHash string
	ModifiedAt   time.Time
}
