// Package analytics assembles read-only statistical reports over a
// caller-supplied date window: population-level aggregates and the
// per-user detailed report. It never mutates state.
package analytics

import (
	"time"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/user"
)

// DateLayout is the wire format for report date bounds.
const DateLayout = "2006-01-02"

// DateRange is an inclusive [Start, End] day range. Start and End are
// midnight UTC of their respective days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls on a day inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End.AddDate(0, 0, 1))
}

// PopulationRequest selects the window and sub-reports for a
// population report. At least one of IncludeListeners/IncludeArtists
// must be set.
type PopulationRequest struct {
	StartDate                 string `json:"start_date"`
	EndDate                   string `json:"end_date"`
	IncludeListeners          bool   `json:"include_listeners"`
	IncludeArtists            bool   `json:"include_artists"`
	IncludePlaylistStatistics bool   `json:"include_playlist_statistics"`
	IncludeAlbumStatistics    bool   `json:"include_album_statistics"`
	IncludeGeographics        bool   `json:"include_geographics"`
}

// UserReportRequest asks for the individual report of one user.
type UserReportRequest struct {
	Username  string `json:"username"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// SplitCounts is a Listener/Artist count pair. A side is present only
// when its population was requested. Ratio is set only when both
// sides were requested; it is "N/A" when either side is zero.
type SplitCounts struct {
	Listeners *int   `json:"listeners,omitempty"`
	Artists   *int   `json:"artists,omitempty"`
	Ratio     string `json:"listener_artist_ratio,omitempty"`
}

// DurationStats are summed seconds and the per-user average in whole
// seconds.
type DurationStats struct {
	Total   int64 `json:"total"`
	Average int64 `json:"average"`
}

// LoginTime aggregates closed-session durations per population plus a
// combined bucket over everything requested.
type LoginTime struct {
	Listeners *DurationStats `json:"listeners,omitempty"`
	Artists   *DurationStats `json:"artists,omitempty"`
	All       DurationStats  `json:"all"`
}

// PlaylistStats splits created playlists by visibility and counts
// likes. DistinctLiked is the number of distinct playlists liked,
// TotalLikes the number of like rows.
type PlaylistStats struct {
	PublicCreated      int    `db:"public_created" json:"public_created"`
	PrivateCreated     int    `db:"private_created" json:"private_created"`
	PublicPrivateRatio string `db:"-" json:"public_private_ratio"`
	TotalLikes         int    `db:"total_likes" json:"total_likes"`
	DistinctLiked      int    `db:"distinct_liked" json:"distinct_liked"`
}

type AlbumStats struct {
	Created       int `db:"-" json:"created"`
	TotalLikes    int `db:"total_likes" json:"total_likes"`
	DistinctLiked int `db:"distinct_liked" json:"distinct_liked"`
}

// AgeBandCount is one fixed age band with its share of the filtered
// population.
type AgeBandCount struct {
	Band       string `json:"band"`
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

// CountryCount is one of the top-5 countries by joined users. The
// percentage is of the top-5 set, not of the whole population.
type CountryCount struct {
	Country    string `json:"country"`
	Code       string `json:"code"`
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

type Demographics struct {
	AgeBands  []AgeBandCount `json:"age_bands"`
	Countries []CountryCount `json:"countries"`
}

// PopulationReport is the merged response of all requested
// sub-reports.
type PopulationReport struct {
	StartDate     string         `json:"start_date"`
	EndDate       string         `json:"end_date"`
	UserCounts    *SplitCounts   `json:"user_counts"`
	LoginCounts   *SplitCounts   `json:"login_counts"`
	LoginTime     *LoginTime     `json:"login_time"`
	SongsListened int64          `json:"songs_listened"`
	SongsUploaded int64          `json:"songs_uploaded"`
	PlaylistStats *PlaylistStats `json:"playlist_stats,omitempty"`
	AlbumStats    *AlbumStats    `json:"album_stats,omitempty"`
	Demographics  *Demographics  `json:"demographics,omitempty"`
}

// ProfileSummary is the identity block of an individual report.
type ProfileSummary struct {
	Account     string `json:"account"`
	DisplayName string `json:"display_name"`
	UserType    string `json:"user_type"`
	Country     string `json:"country"`
	City        string `json:"city"`
	JoinedAt    string `json:"joined_at"`
}

// LoginStats covers every login row in range; the duration fields
// count closed sessions only.
type LoginStats struct {
	Count          int   `json:"count"`
	TotalSeconds   int64 `json:"total_seconds"`
	AverageSeconds int64 `json:"average_seconds"`
}

// TopSong is one entry of a play-count top list.
type TopSong struct {
	ULID      string `db:"ulid" json:"ulid"`
	Title     string `db:"title" json:"title"`
	PlayCount int    `db:"play_count" json:"play_count"`
}

// GenreShare is one genre's slice of an artist's catalog.
type GenreShare struct {
	Genre      string `json:"genre"`
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

// ListenerReport is the listener-shaped half of an individual report.
type ListenerReport struct {
	SongsPlayed      int       `db:"songs_played" json:"songs_played"`
	DistinctSongs    int       `db:"distinct_songs" json:"distinct_songs"`
	ListeningSeconds int64     `db:"listening_seconds" json:"listening_seconds"`
	PlaylistsCreated int       `db:"-" json:"playlists_created"`
	PlaylistsLiked   int       `db:"-" json:"playlists_liked"`
	SongsLiked       int       `db:"-" json:"songs_liked"`
	AlbumsLiked      int       `db:"-" json:"albums_liked"`
	TopSongs         []TopSong `db:"-" json:"top_songs"`
}

// ArtistReport is the artist-shaped half of an individual report.
// PlaysByOthers and LikesReceived exclude the artist's own actions.
type ArtistReport struct {
	PlaysByOthers int          `json:"plays_by_others"`
	PlaylistAdds  int          `json:"playlist_adds"`
	AlbumsCreated int          `json:"albums_created"`
	AlbumsLiked   int          `json:"albums_liked"`
	Genres        []GenreShare `json:"genres"`
	TopSongs      []TopSong    `json:"top_songs"`
}

// UserReport is the individual report. Exactly one of Listener/Artist
// is set, keyed on the target's user type.
type UserReport struct {
	Profile  ProfileSummary  `json:"profile"`
	Logins   LoginStats      `json:"logins"`
	Listener *ListenerReport `json:"listener,omitempty"`
	Artist   *ArtistReport   `json:"artist,omitempty"`
}

// LoginFact is one ledger row joined with its owner's user type, the
// raw material for login counts, login time and the activity sums.
// Analyst rows never appear.
type LoginFact struct {
	UserAccount     string        `db:"user_account"`
	UserType        user.UserType `db:"user_type"`
	LoginAt         time.Time     `db:"login_at"`
	DurationSeconds *int64        `db:"session_duration_seconds"`
	SongsPlayed     int           `db:"songs_played"`
	SongsUploaded   int           `db:"songs_uploaded"`
}
