package api

import (
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/analytics"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/catalog"
)

// API request types

type SignupRequest struct {
	UserAccount string `json:"user_account"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	DateOfBirth string `json:"date_of_birth"`
	Country     string `json:"country"`
	City        string `json:"city"`
	UserType    string `json:"user_type"`
	Bio         string `json:"bio"`
}

type LoginRequest struct {
	UserAccount string `json:"user_account"`
	Password    string `json:"password"`
}

type AddGenreRequest struct {
	Name string `json:"name"`
}

type AddAlbumRequest struct {
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
}

type AddSongRequest struct {
	Title           string  `json:"title"`
	AlbumULID       *string `json:"album_ulid,omitempty"`
	GenreID         *int    `json:"genre_id,omitempty"`
	DurationSeconds int     `json:"duration_seconds"`
}

type PlayRequest struct {
	DurationSeconds int `json:"duration_seconds"`
}

type LikeRequest struct {
	IsLiked bool `json:"is_liked"`
}

type FollowRequest struct {
	IsFollowing bool `json:"is_following"`
}

// RateRequest carries a 1-5 rating; zero removes the caller's rating.
type RateRequest struct {
	Rating int `json:"rating"`
}

type AddPlaylistRequest struct {
	Name string `json:"name"`
}

type UpdatePlaylistRequest struct {
	Name      *string  `json:"name"`
	SongULIDs []string `json:"song_ulids"`
	IsPublic  bool     `json:"is_public"`
}

type FavoritePlaylistRequest struct {
	IsFavorited bool `json:"is_favorited"`
}

type AdminUserStatusRequest struct {
	UserAccount string `json:"user_account"`
	Status      string `json:"account_status"`
}

// API response types

type BasicResponse struct {
	Result bool    `json:"result"`
	Status int     `json:"status"`
	Error  *string `json:"error,omitempty"`
}

type GenresResponse struct {
	BasicResponse
	Genres []catalog.Genre `json:"genres"`
}

type SongResponse struct {
	BasicResponse
	Song catalog.Song `json:"song"`
}

type AlbumResponse struct {
	BasicResponse
	Album catalog.Album `json:"album"`
}

type FollowResponse struct {
	BasicResponse
	ArtistAccount string `json:"artist_account"`
	FollowerCount int    `json:"follower_count"`
	IsFollowing   bool   `json:"is_following"`
}

type GetRecentPlaylistsResponse struct {
	BasicResponse
	Playlists []catalog.PlaylistSummary `json:"playlists"`
}

type GetPlaylistsResponse struct {
	BasicResponse
	CreatedPlaylists []catalog.PlaylistSummary `json:"created_playlists"`
}

type AddPlaylistResponse struct {
	BasicResponse
	PlaylistULID string `json:"playlist_ulid"`
}

type SinglePlaylistResponse struct {
	BasicResponse
	Playlist catalog.PlaylistDetail `json:"playlist"`
}

type AdminUserStatusResponse struct {
	BasicResponse
	UserAccount string `json:"user_account"`
	DisplayName string `json:"display_name"`
	Status      string `json:"account_status"`
}

type SweepLoginsResponse struct {
	BasicResponse
	Closed int `json:"closed"`
}

type PopulationReportResponse struct {
	BasicResponse
	Report *analytics.PopulationReport `json:"report"`
}

type UserReportResponse struct {
	BasicResponse
	Report *analytics.UserReport `json:"report"`
}
