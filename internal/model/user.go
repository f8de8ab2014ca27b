// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. There is no inheritance:
// types are composed from smaller pieces instead.
package model

import "time"

// User represents a registered account.
//
// PASSWORD DIGEST:
// PasswordDigest holds the bcrypt output, never the plaintext. The `json:"-"`
// tag removes it from every JSON encoding, so no handler can leak it by
// accident when it serializes a User.
//
// EMAIL:
// Email is the login name. It is unique across all users and compared
// exactly as stored (case-sensitive). The store enforces uniqueness with an
// index so that two concurrent registrations cannot both succeed.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordDigest string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserSummary is the only view of a User that leaves the server.
type UserSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary returns the non-sensitive part of the user record.
func (u *User) Summary() *UserSummary {
	return &UserSummary{Name: u.Name, Email: u.Email}
}
