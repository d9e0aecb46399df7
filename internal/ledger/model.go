// Package ledger tracks the login-to-logout lifecycle and the activity
// counters scoped to each login. One row per login attempt; a row is
// open while logout_at is null.
package ledger

import "time"

// Login is one row of the user_logins table.
type Login struct {
	ID              int64      `db:"id" json:"id"`
	UserAccount     string     `db:"user_account" json:"user_account"`
	LoginAt         time.Time  `db:"login_at" json:"login_at"`
	LogoutAt        *time.Time `db:"logout_at" json:"logout_at,omitempty"`
	DurationSeconds *int64     `db:"session_duration_seconds" json:"session_duration_seconds,omitempty"`
	SongsPlayed     int        `db:"songs_played" json:"songs_played"`
	SongsLiked      int        `db:"songs_liked" json:"songs_liked"`
	ArtistsFollowed int        `db:"artists_followed" json:"artists_followed"`
	SongsUploaded   int        `db:"songs_uploaded" json:"songs_uploaded"`
}

// Open reports whether the login has not been logged out yet.
func (l *Login) Open() bool { return l.LogoutAt == nil }

// ActivityDelta carries per-session counter increments. Zero fields
// leave their counters untouched.
type ActivityDelta struct {
	SongsPlayed     int `json:"songs_played,omitempty"`
	SongsLiked      int `json:"songs_liked,omitempty"`
	ArtistsFollowed int `json:"artists_followed,omitempty"`
	SongsUploaded   int `json:"songs_uploaded,omitempty"`
}

// Empty reports whether the delta would not change any counter.
func (d ActivityDelta) Empty() bool {
	return d.SongsPlayed == 0 && d.SongsLiked == 0 && d.ArtistsFollowed == 0 && d.SongsUploaded == 0
}

// DefaultInactivityTimeout is the age after which an open login is
// eligible for the inactivity sweep.
const DefaultInactivityTimeout = 3600 * time.Second
