package catalog

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/apperr"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/user"
)

// MemoryRepository is an in-memory Repository backed by the shared
// in-memory user store (for display names and the artist verification
// rows).
type MemoryRepository struct {
	mu    sync.RWMutex
	users *user.MemoryRepository

	nextGenreID    int
	nextAlbumID    int
	nextSongID     int
	nextPlaylistID int
	nextListenID   int64

	genres    map[int]*Genre
	albums    map[int]*Album
	songs     map[int]*Song
	playlists map[int]*Playlist

	playlistSongs []PlaylistSong
	songLikes     []SongLike
	albumLikes    []AlbumLike
	playlistLikes []PlaylistLike
	follows       []Follow
	listens       []Listen

	// membership sets for O(1) duplicate checks; the slices above
	// keep the timestamps analytics needs
	songLikeSet     mapset.Set
	albumLikeSet    mapset.Set
	playlistLikeSet mapset.Set
	followSet       mapset.Set

	songRatings  map[int]map[string]*Rating
	albumRatings map[int]map[string]*Rating
}

func NewMemoryRepository(users *user.MemoryRepository) *MemoryRepository {
	return &MemoryRepository{
		users:           users,
		nextGenreID:     1,
		nextAlbumID:     1,
		nextSongID:      1,
		nextPlaylistID:  1,
		nextListenID:    1,
		genres:          make(map[int]*Genre),
		albums:          make(map[int]*Album),
		songs:           make(map[int]*Song),
		playlists:       make(map[int]*Playlist),
		songLikeSet:     mapset.NewSet(),
		albumLikeSet:    mapset.NewSet(),
		playlistLikeSet: mapset.NewSet(),
		followSet:       mapset.NewSet(),
		songRatings:     make(map[int]map[string]*Rating),
		albumRatings:    make(map[int]map[string]*Rating),
	}
}

func likeKey(account string, id int) string {
	return fmt.Sprintf("%s\x00%d", account, id)
}

func followKey(account, artistAccount string) string {
	return account + "\x00" + artistAccount
}

func (r *MemoryRepository) Genres(_ context.Context) ([]Genre, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Genre, 0, len(r.genres))
	for _, g := range r.genres {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) CreateGenre(_ context.Context, name string) (*Genre, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.genres {
		if g.Name == name {
			return nil, apperr.Validation("genre already exists")
		}
	}
	g := &Genre{ID: r.nextGenreID, Name: name}
	r.genres[g.ID] = g
	r.nextGenreID++
	cp := *g
	return &cp, nil
}

func (r *MemoryRepository) CreateAlbum(_ context.Context, a *Album) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.nextAlbumID
	r.nextAlbumID++
	cp := *a
	r.albums[a.ID] = &cp
	return nil
}

func (r *MemoryRepository) AlbumByULID(_ context.Context, ulid string) (*Album, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.albums {
		if a.ULID == ulid {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("album not found")
}

func (r *MemoryRepository) CreateSong(_ context.Context, s *Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.nextSongID
	r.nextSongID++
	cp := *s
	r.songs[s.ID] = &cp
	return nil
}

func (r *MemoryRepository) SongByULID(_ context.Context, ulid string) (*Song, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.songs {
		if s.ULID == ulid {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("song not found")
}

// deleteSongLocked runs the single-song cascade; caller holds the lock.
func (r *MemoryRepository) deleteSongLocked(songID int) {
	delete(r.songs, songID)
	delete(r.songRatings, songID)

	keep := r.playlistSongs[:0]
	for _, ps := range r.playlistSongs {
		if ps.SongID != songID {
			keep = append(keep, ps)
		}
	}
	r.playlistSongs = keep

	likes := r.songLikes[:0]
	for _, l := range r.songLikes {
		if l.SongID != songID {
			likes = append(likes, l)
		} else {
			r.songLikeSet.Remove(likeKey(l.UserAccount, songID))
		}
	}
	r.songLikes = likes

	listens := r.listens[:0]
	for _, l := range r.listens {
		if l.SongID != songID {
			listens = append(listens, l)
		}
	}
	r.listens = listens
}

func (r *MemoryRepository) DeleteSong(_ context.Context, songID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteSongLocked(songID)
	return nil
}

func (r *MemoryRepository) DeleteAlbum(_ context.Context, albumID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.songs {
		if s.AlbumID != nil && *s.AlbumID == albumID {
			r.deleteSongLocked(id)
		}
	}
	delete(r.albums, albumID)
	delete(r.albumRatings, albumID)
	likes := r.albumLikes[:0]
	for _, l := range r.albumLikes {
		if l.AlbumID != albumID {
			likes = append(likes, l)
		} else {
			r.albumLikeSet.Remove(likeKey(l.UserAccount, albumID))
		}
	}
	r.albumLikes = likes
	return nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func aggregate(ratings map[string]*Rating) (int, float64) {
	if len(ratings) == 0 {
		return 0, 0.00
	}
	sum := 0
	for _, rt := range ratings {
		sum += rt.Rating
	}
	return len(ratings), round2(float64(sum) / float64(len(ratings)))
}

func (r *MemoryRepository) RateSong(_ context.Context, account string, songID, rating int, at time.Time) (*Song, error) {
	if err := validRating(rating); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.songs[songID]
	if !ok {
		return nil, apperr.NotFound("song not found")
	}
	byUser := r.songRatings[songID]
	if byUser == nil {
		byUser = make(map[string]*Rating)
		r.songRatings[songID] = byUser
	}
	if existing, ok := byUser[account]; ok {
		existing.Rating = rating
		existing.UpdatedAt = at
	} else {
		byUser[account] = &Rating{UserAccount: account, TargetID: songID, Rating: rating, CreatedAt: at, UpdatedAt: at}
	}
	s.TotalRatings, s.AverageRating = aggregate(byUser)
	cp := *s
	return &cp, nil
}

func (r *MemoryRepository) DeleteSongRating(_ context.Context, account string, songID int) (*Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.songs[songID]
	if !ok {
		return nil, apperr.NotFound("song not found")
	}
	byUser := r.songRatings[songID]
	if _, ok := byUser[account]; !ok {
		return nil, apperr.NotFound("rating not found")
	}
	delete(byUser, account)
	s.TotalRatings, s.AverageRating = aggregate(byUser)
	cp := *s
	return &cp, nil
}

func (r *MemoryRepository) RateAlbum(_ context.Context, account string, albumID, rating int, at time.Time) (*Album, error) {
	if err := validRating(rating); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.albums[albumID]
	if !ok {
		return nil, apperr.NotFound("album not found")
	}
	byUser := r.albumRatings[albumID]
	if byUser == nil {
		byUser = make(map[string]*Rating)
		r.albumRatings[albumID] = byUser
	}
	if existing, ok := byUser[account]; ok {
		existing.Rating = rating
		existing.UpdatedAt = at
	} else {
		byUser[account] = &Rating{UserAccount: account, TargetID: albumID, Rating: rating, CreatedAt: at, UpdatedAt: at}
	}
	a.TotalRatings, a.AverageRating = aggregate(byUser)
	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) DeleteAlbumRating(_ context.Context, account string, albumID int) (*Album, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.albums[albumID]
	if !ok {
		return nil, apperr.NotFound("album not found")
	}
	byUser := r.albumRatings[albumID]
	if _, ok := byUser[account]; !ok {
		return nil, apperr.NotFound("rating not found")
	}
	delete(byUser, account)
	a.TotalRatings, a.AverageRating = aggregate(byUser)
	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) LikeSong(_ context.Context, account string, songID int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.songs[songID]; !ok {
		return apperr.NotFound("song not found")
	}
	if !r.songLikeSet.Add(likeKey(account, songID)) {
		return nil
	}
	r.songLikes = append(r.songLikes, SongLike{UserAccount: account, SongID: songID, CreatedAt: at})
	return nil
}

func (r *MemoryRepository) UnlikeSong(_ context.Context, account string, songID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.songLikeSet.Remove(likeKey(account, songID))
	keep := r.songLikes[:0]
	for _, l := range r.songLikes {
		if !(l.UserAccount == account && l.SongID == songID) {
			keep = append(keep, l)
		}
	}
	r.songLikes = keep
	return nil
}

func (r *MemoryRepository) LikeAlbum(_ context.Context, account string, albumID int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.albums[albumID]; !ok {
		return apperr.NotFound("album not found")
	}
	if !r.albumLikeSet.Add(likeKey(account, albumID)) {
		return nil
	}
	r.albumLikes = append(r.albumLikes, AlbumLike{UserAccount: account, AlbumID: albumID, CreatedAt: at})
	return nil
}

func (r *MemoryRepository) UnlikeAlbum(_ context.Context, account string, albumID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.albumLikeSet.Remove(likeKey(account, albumID))
	keep := r.albumLikes[:0]
	for _, l := range r.albumLikes {
		if !(l.UserAccount == account && l.AlbumID == albumID) {
			keep = append(keep, l)
		}
	}
	r.albumLikes = keep
	return nil
}

func (r *MemoryRepository) LikePlaylist(_ context.Context, account string, playlistID int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.playlists[playlistID]; !ok {
		return apperr.NotFound("playlist not found")
	}
	if !r.playlistLikeSet.Add(likeKey(account, playlistID)) {
		return nil
	}
	r.playlistLikes = append(r.playlistLikes, PlaylistLike{UserAccount: account, PlaylistID: playlistID, CreatedAt: at})
	return nil
}

func (r *MemoryRepository) UnlikePlaylist(_ context.Context, account string, playlistID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playlistLikeSet.Remove(likeKey(account, playlistID))
	keep := r.playlistLikes[:0]
	for _, l := range r.playlistLikes {
		if !(l.UserAccount == account && l.PlaylistID == playlistID) {
			keep = append(keep, l)
		}
	}
	r.playlistLikes = keep
	return nil
}

func (r *MemoryRepository) followerCountLocked(artistAccount string) int {
	count := 0
	for _, f := range r.follows {
		if f.ArtistAccount == artistAccount {
			count++
		}
	}
	return count
}

func (r *MemoryRepository) FollowArtist(ctx context.Context, account, artistAccount string, at time.Time) (bool, error) {
	if _, err := r.users.GetArtist(ctx, artistAccount); err != nil {
		return false, err
	}
	r.mu.Lock()
	if !r.followSet.Add(followKey(account, artistAccount)) {
		r.mu.Unlock()
		return false, nil
	}
	r.follows = append(r.follows, Follow{UserAccount: account, ArtistAccount: artistAccount, CreatedAt: at})
	count := r.followerCountLocked(artistAccount)
	r.mu.Unlock()

	if count >= VerificationThreshold {
		err := r.users.MutateArtist(artistAccount, func(a *user.ArtistProfile) {
			if !a.IsVerified {
				verifiedAt := at
				a.IsVerified = true
				a.VerifiedAt = &verifiedAt
				a.VerifiedBy = nil
			}
		})
		if err != nil {
			return true, err
		}
	}
	return true, nil
}

func (r *MemoryRepository) UnfollowArtist(ctx context.Context, account, artistAccount string) (bool, error) {
	if _, err := r.users.GetArtist(ctx, artistAccount); err != nil {
		return false, err
	}
	r.mu.Lock()
	if !r.followSet.Contains(followKey(account, artistAccount)) {
		r.mu.Unlock()
		return false, nil
	}
	r.followSet.Remove(followKey(account, artistAccount))
	keep := r.follows[:0]
	for _, f := range r.follows {
		if !(f.UserAccount == account && f.ArtistAccount == artistAccount) {
			keep = append(keep, f)
		}
	}
	r.follows = keep
	count := r.followerCountLocked(artistAccount)
	r.mu.Unlock()

	if count < VerificationThreshold {
		err := r.users.MutateArtist(artistAccount, func(a *user.ArtistProfile) {
			if a.IsVerified {
				a.IsVerified = false
				a.VerifiedAt = nil
				a.VerifiedBy = nil
			}
		})
		if err != nil {
			return true, err
		}
	}
	return true, nil
}

func (r *MemoryRepository) FollowerCount(_ context.Context, artistAccount string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.followerCountLocked(artistAccount), nil
}

func (r *MemoryRepository) RecordListen(_ context.Context, account string, songID int, at time.Time, durationSeconds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.songs[songID]; !ok {
		return apperr.NotFound("song not found")
	}
	r.listens = append(r.listens, Listen{
		ID:              r.nextListenID,
		UserAccount:     account,
		SongID:          songID,
		ListenedAt:      at,
		DurationSeconds: durationSeconds,
	})
	r.nextListenID++
	return nil
}

func (r *MemoryRepository) CreatePlaylist(_ context.Context, p *Playlist) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.nextPlaylistID
	r.nextPlaylistID++
	cp := *p
	r.playlists[p.ID] = &cp
	return nil
}

func (r *MemoryRepository) PlaylistByULID(_ context.Context, ulid string) (*Playlist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.playlists {
		if p.ULID == ulid {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("playlist not found")
}

func (r *MemoryRepository) UpdatePlaylist(_ context.Context, playlistID int, name string, isPublic bool, songIDs []int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.playlists[playlistID]
	if !ok {
		return apperr.NotFound("playlist not found")
	}
	p.Name = name
	p.IsPublic = isPublic
	p.UpdatedAt = at
	keep := r.playlistSongs[:0]
	for _, ps := range r.playlistSongs {
		if ps.PlaylistID != playlistID {
			keep = append(keep, ps)
		}
	}
	r.playlistSongs = keep
	for i, songID := range songIDs {
		r.playlistSongs = append(r.playlistSongs, PlaylistSong{PlaylistID: playlistID, SortOrder: i + 1, SongID: songID})
	}
	return nil
}

func (r *MemoryRepository) DeletePlaylist(_ context.Context, playlistID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.playlists, playlistID)
	keep := r.playlistSongs[:0]
	for _, ps := range r.playlistSongs {
		if ps.PlaylistID != playlistID {
			keep = append(keep, ps)
		}
	}
	r.playlistSongs = keep
	likes := r.playlistLikes[:0]
	for _, l := range r.playlistLikes {
		if l.PlaylistID != playlistID {
			likes = append(likes, l)
		} else {
			r.playlistLikeSet.Remove(likeKey(l.UserAccount, playlistID))
		}
	}
	r.playlistLikes = likes
	return nil
}

func (r *MemoryRepository) summaryLocked(ctx context.Context, p *Playlist, viewerAccount *string) (*PlaylistSummary, error) {
	owner, err := r.users.GetByAccount(ctx, p.UserAccount)
	if err != nil {
		return nil, err
	}
	songCount := 0
	for _, ps := range r.playlistSongs {
		if ps.PlaylistID == p.ID {
			songCount++
		}
	}
	likeCount := 0
	for _, l := range r.playlistLikes {
		if l.PlaylistID == p.ID {
			likeCount++
		}
	}
	isLiked := false
	if viewerAccount != nil {
		isLiked = r.playlistLikeSet.Contains(likeKey(*viewerAccount, p.ID))
	}
	return &PlaylistSummary{
		ULID:            p.ULID,
		Name:            p.Name,
		UserDisplayName: owner.DisplayName,
		UserAccount:     p.UserAccount,
		SongCount:       songCount,
		LikeCount:       likeCount,
		IsLiked:         isLiked,
		IsPublic:        p.IsPublic,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}, nil
}

func (r *MemoryRepository) PlaylistDetail(ctx context.Context, ulid string, viewerAccount *string) (*PlaylistDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var p *Playlist
	for _, row := range r.playlists {
		if row.ULID == ulid {
			p = row
			break
		}
	}
	if p == nil {
		return nil, apperr.NotFound("playlist not found")
	}
	summary, err := r.summaryLocked(ctx, p, viewerAccount)
	if err != nil {
		return nil, err
	}
	var entries []PlaylistSong
	for _, ps := range r.playlistSongs {
		if ps.PlaylistID == p.ID {
			entries = append(entries, ps)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].SortOrder < entries[j].SortOrder })
	songs := make([]Song, 0, len(entries))
	for _, e := range entries {
		if s, ok := r.songs[e.SongID]; ok {
			songs = append(songs, *s)
		}
	}
	return &PlaylistDetail{PlaylistSummary: summary, Songs: songs}, nil
}

func (r *MemoryRepository) RecentPlaylists(ctx context.Context, viewerAccount *string, limit int) ([]PlaylistSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var rows []*Playlist
	for _, p := range r.playlists {
		if p.IsPublic {
			rows = append(rows, p)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]PlaylistSummary, 0, len(rows))
	for _, p := range rows {
		s, err := r.summaryLocked(ctx, p, viewerAccount)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *MemoryRepository) PopularPlaylists(ctx context.Context, viewerAccount *string, limit int) ([]PlaylistSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	likeCounts := make(map[int]int)
	for _, l := range r.playlistLikes {
		likeCounts[l.PlaylistID]++
	}
	var rows []*Playlist
	for _, p := range r.playlists {
		if p.IsPublic && likeCounts[p.ID] > 0 {
			rows = append(rows, p)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if likeCounts[rows[i].ID] != likeCounts[rows[j].ID] {
			return likeCounts[rows[i].ID] > likeCounts[rows[j].ID]
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]PlaylistSummary, 0, len(rows))
	for _, p := range rows {
		s, err := r.summaryLocked(ctx, p, viewerAccount)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *MemoryRepository) PlaylistsByUser(ctx context.Context, account string) ([]PlaylistSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var rows []*Playlist
	for _, p := range r.playlists {
		if p.UserAccount == account {
			rows = append(rows, p)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	out := make([]PlaylistSummary, 0, len(rows))
	for _, p := range rows {
		s, err := r.summaryLocked(ctx, p, &account)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

// Snapshot copies every fact table for the in-memory analytics store.
type Snapshot struct {
	Genres        []Genre
	Albums        []Album
	Songs         []Song
	Playlists     []Playlist
	PlaylistSongs []PlaylistSong
	SongLikes     []SongLike
	AlbumLikes    []AlbumLike
	PlaylistLikes []PlaylistLike
	Follows       []Follow
	Listens       []Listen
	SongRatings   []Rating
	AlbumRatings  []Rating
}

func (r *MemoryRepository) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := Snapshot{
		PlaylistSongs: append([]PlaylistSong(nil), r.playlistSongs...),
		SongLikes:     append([]SongLike(nil), r.songLikes...),
		AlbumLikes:    append([]AlbumLike(nil), r.albumLikes...),
		PlaylistLikes: append([]PlaylistLike(nil), r.playlistLikes...),
		Follows:       append([]Follow(nil), r.follows...),
		Listens:       append([]Listen(nil), r.listens...),
	}
	for _, g := range r.genres {
		snap.Genres = append(snap.Genres, *g)
	}
	for _, a := range r.albums {
		snap.Albums = append(snap.Albums, *a)
	}
	for _, s := range r.songs {
		snap.Songs = append(snap.Songs, *s)
	}
	for _, p := range r.playlists {
		snap.Playlists = append(snap.Playlists, *p)
	}
	for _, byUser := range r.songRatings {
		for _, rt := range byUser {
			snap.SongRatings = append(snap.SongRatings, *rt)
		}
	}
	for _, byUser := range r.albumRatings {
		for _, rt := range byUser {
			snap.AlbumRatings = append(snap.AlbumRatings, *rt)
		}
	}
	return snap
}
