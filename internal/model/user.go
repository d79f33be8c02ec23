// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account.
//
// Email is unique across all users and stored trimmed and lower-cased.
// PasswordHash is a bcrypt digest; the `json:"-"` tag keeps it out of every
// JSON response, and it never goes into a session token either.
// Users are created at registration and never mutated or deleted here.
type User struct {
	ID           string    `json:"_id"       db:"id"`
	FullName     string    `json:"fullName"  db:"full_name"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedOn    time.Time `json:"createdOn" db:"created_on"`
}

// PublicUser is the restricted view returned to clients.
type PublicUser struct {
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	ID        string    `json:"_id"`
	CreatedOn time.Time `json:"createdOn"`
}

// Public returns the client-safe view of u.
func (u *User) Public() PublicUser {
	return PublicUser{
		FullName:  u.FullName,
		Email:     u.Email,
		ID:        u.ID,
		CreatedOn: u.CreatedOn,
	}
}
