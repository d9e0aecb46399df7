// Package user stores user profiles and the artist extension rows.
package user

import "time"

// UserType discriminates the four account roles.
type UserType string

const (
	TypeListener      UserType = "Listener"
	TypeArtist        UserType = "Artist"
	TypeAdministrator UserType = "Administrator"
	TypeAnalyst       UserType = "Analyst"
)

// AccountStatus is the administrative state of an account.
type AccountStatus string

const (
	StatusActive    AccountStatus = "Active"
	StatusSuspended AccountStatus = "Suspended"
	StatusBanned    AccountStatus = "Banned"
)

// User is one row of the users table. Accounts are never physically
// deleted; admins ban or suspend them instead.
type User struct {
	Account      string        `db:"account" json:"account"`
	PasswordHash string        `db:"password_hash" json:"-"`
	DisplayName  string        `db:"display_name" json:"display_name"`
	Email        string        `db:"email" json:"email"`
	DateOfBirth  time.Time     `db:"date_of_birth" json:"date_of_birth"`
	Country      string        `db:"country" json:"country"`
	City         string        `db:"city" json:"city"`
	UserType     UserType      `db:"user_type" json:"user_type"`
	Status       AccountStatus `db:"account_status" json:"account_status"`
	IsOnline     bool          `db:"is_online" json:"is_online"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	LastLoginAt  time.Time     `db:"last_login_at" json:"last_login_at"`
}

// Active reports whether the account may log in and act.
func (u *User) Active() bool {
	return u.Status == StatusActive
}

// ArtistProfile is the 1:1 extension row for Artist-typed users.
// Verification is maintained by the follow threshold rule in catalog.
type ArtistProfile struct {
	UserAccount string     `db:"user_account" json:"user_account"`
	Bio         string     `db:"bio" json:"bio"`
	IsVerified  bool       `db:"is_verified" json:"is_verified"`
	VerifiedBy  *string    `db:"verified_by" json:"verified_by,omitempty"`
	VerifiedAt  *time.Time `db:"verified_at" json:"verified_at,omitempty"`
}
