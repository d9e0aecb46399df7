// Package catalog stores songs, albums, playlists and the interaction
// rows (likes, follows, ratings, listening history), and keeps the
// derived statistics consistent with them: rating aggregates,
// the artist verification threshold, and the cascade deletes.
package catalog

import "time"

// VerificationThreshold is the follower count at which an artist is
// auto-verified. Dropping back below it clears the verification.
const VerificationThreshold = 100

// Genre is reference data for song categorization.
type Genre struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Album carries denormalized rating aggregates maintained by the
// rating writes.
type Album struct {
	ID            int       `db:"id" json:"-"`
	ULID          string    `db:"ulid" json:"ulid"`
	Title         string    `db:"title" json:"title"`
	ArtistAccount string    `db:"artist_account" json:"artist_account"`
	ReleaseDate   time.Time `db:"release_date" json:"release_date"`
	AverageRating float64   `db:"average_rating" json:"average_rating"`
	TotalRatings  int       `db:"total_ratings" json:"total_ratings"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Song carries the same denormalized rating aggregates as Album.
type Song struct {
	ID              int       `db:"id" json:"-"`
	ULID            string    `db:"ulid" json:"ulid"`
	Title           string    `db:"title" json:"title"`
	ArtistAccount   string    `db:"artist_account" json:"artist_account"`
	AlbumID         *int      `db:"album_id" json:"-"`
	GenreID         *int      `db:"genre_id" json:"-"`
	DurationSeconds int       `db:"duration_seconds" json:"duration_seconds"`
	AverageRating   float64   `db:"average_rating" json:"average_rating"`
	TotalRatings    int       `db:"total_ratings" json:"total_ratings"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Playlist rows are private on creation, as in the original service.
type Playlist struct {
	ID          int       `db:"id" json:"-"`
	ULID        string    `db:"ulid" json:"ulid"`
	Name        string    `db:"name" json:"name"`
	UserAccount string    `db:"user_account" json:"user_account"`
	IsPublic    bool      `db:"is_public" json:"is_public"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// PlaylistSong orders songs within a playlist.
type PlaylistSong struct {
	PlaylistID int `db:"playlist_id"`
	SortOrder  int `db:"sort_order"`
	SongID     int `db:"song_id"`
}

// SongLike, AlbumLike and PlaylistLike are timestamped join rows; the
// timestamps scope interaction counts in analytics.
type SongLike struct {
	UserAccount string    `db:"user_account"`
	SongID      int       `db:"song_id"`
	CreatedAt   time.Time `db:"created_at"`
}

type AlbumLike struct {
	UserAccount string    `db:"user_account"`
	AlbumID     int       `db:"album_id"`
	CreatedAt   time.Time `db:"created_at"`
}

type PlaylistLike struct {
	UserAccount string    `db:"user_account"`
	PlaylistID  int       `db:"playlist_id"`
	CreatedAt   time.Time `db:"created_at"`
}

// Follow is a listener following an artist.
type Follow struct {
	UserAccount   string    `db:"user_account"`
	ArtistAccount string    `db:"artist_account"`
	CreatedAt     time.Time `db:"created_at"`
}

// Listen is one append-only listening-history row. Never updated.
type Listen struct {
	ID              int64     `db:"id"`
	UserAccount     string    `db:"user_account"`
	SongID          int       `db:"song_id"`
	ListenedAt      time.Time `db:"listened_at"`
	DurationSeconds int       `db:"duration_seconds"`
}

// Rating is a 1-5 integer rating, unique per (user, target).
type Rating struct {
	UserAccount string    `db:"user_account"`
	TargetID    int       `db:"target_id"`
	Rating      int       `db:"rating"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// PlaylistSummary is the list-view shape returned to clients.
type PlaylistSummary struct {
	ULID            string    `json:"ulid"`
	Name            string    `json:"name"`
	UserDisplayName string    `json:"user_display_name"`
	UserAccount     string    `json:"user_account"`
	SongCount       int       `json:"song_count"`
	LikeCount       int       `json:"like_count"`
	IsLiked         bool      `json:"is_liked"`
	IsPublic        bool      `json:"is_public"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PlaylistDetail is a summary plus its ordered songs.
type PlaylistDetail struct {
	*PlaylistSummary
	Songs []Song `json:"songs"`
}
