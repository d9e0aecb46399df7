package analytics

import (
	"context"
	"sort"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/catalog"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/ledger"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/user"
)

// MemoryStore implements Store over snapshots of the in-memory
// repositories.
type MemoryStore struct {
	users   *user.MemoryRepository
	logins  *ledger.MemoryRepository
	catalog *catalog.MemoryRepository
}

func NewMemoryStore(users *user.MemoryRepository, logins *ledger.MemoryRepository, cat *catalog.MemoryRepository) *MemoryStore {
	return &MemoryStore{users: users, logins: logins, catalog: cat}
}

func (s *MemoryStore) JoinedUsers(_ context.Context, r DateRange) ([]user.User, error) {
	var out []user.User
	for _, u := range s.users.All() {
		if u.UserType == user.TypeAnalyst {
			continue
		}
		if r.Contains(u.CreatedAt) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *MemoryStore) typeOf(ctx context.Context, account string) (user.UserType, error) {
	u, err := s.users.GetByAccount(ctx, account)
	if err != nil {
		return "", err
	}
	return u.UserType, nil
}

func (s *MemoryStore) LoginFacts(ctx context.Context, r DateRange) ([]LoginFact, error) {
	var out []LoginFact
	for _, l := range s.logins.All() {
		if !r.Contains(l.LoginAt) {
			continue
		}
		typ, err := s.typeOf(ctx, l.UserAccount)
		if err != nil {
			return nil, err
		}
		if typ == user.TypeAnalyst {
			continue
		}
		out = append(out, LoginFact{
			UserAccount:     l.UserAccount,
			UserType:        typ,
			LoginAt:         l.LoginAt,
			DurationSeconds: l.DurationSeconds,
			SongsPlayed:     l.SongsPlayed,
			SongsUploaded:   l.SongsUploaded,
		})
	}
	return out, nil
}

func (s *MemoryStore) PlaylistFacts(ctx context.Context, r DateRange) (*PlaylistStats, error) {
	snap := s.catalog.Snapshot()
	stats := &PlaylistStats{}
	for _, p := range snap.Playlists {
		if !r.Contains(p.CreatedAt) {
			continue
		}
		typ, err := s.typeOf(ctx, p.UserAccount)
		if err != nil {
			return nil, err
		}
		if typ == user.TypeAnalyst {
			continue
		}
		if p.IsPublic {
			stats.PublicCreated++
		} else {
			stats.PrivateCreated++
		}
	}
	liked := map[int]struct{}{}
	for _, l := range snap.PlaylistLikes {
		if !r.Contains(l.CreatedAt) {
			continue
		}
		typ, err := s.typeOf(ctx, l.UserAccount)
		if err != nil {
			return nil, err
		}
		if typ == user.TypeAnalyst {
			continue
		}
		stats.TotalLikes++
		liked[l.PlaylistID] = struct{}{}
	}
	stats.DistinctLiked = len(liked)
	return stats, nil
}

func (s *MemoryStore) AlbumFacts(ctx context.Context, r DateRange) (*AlbumStats, error) {
	snap := s.catalog.Snapshot()
	stats := &AlbumStats{}
	for _, a := range snap.Albums {
		if r.Contains(a.CreatedAt) {
			stats.Created++
		}
	}
	liked := map[int]struct{}{}
	for _, l := range snap.AlbumLikes {
		if !r.Contains(l.CreatedAt) {
			continue
		}
		typ, err := s.typeOf(ctx, l.UserAccount)
		if err != nil {
			return nil, err
		}
		if typ == user.TypeAnalyst {
			continue
		}
		stats.TotalLikes++
		liked[l.AlbumID] = struct{}{}
	}
	stats.DistinctLiked = len(liked)
	return stats, nil
}

func (s *MemoryStore) UserByAccount(ctx context.Context, username string) (*user.User, error) {
	u, err := s.users.GetByAccount(ctx, username)
	if err == nil {
		return u, nil
	}
	return s.users.GetByAccountFold(ctx, username)
}

func (s *MemoryStore) UserLogins(_ context.Context, account string, r DateRange) ([]ledger.Login, error) {
	var out []ledger.Login
	for _, l := range s.logins.All() {
		if l.UserAccount == account && r.Contains(l.LoginAt) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoginAt.Before(out[j].LoginAt) })
	return out, nil
}

func topSongs(snap catalog.Snapshot, plays map[int]int) []TopSong {
	byID := map[int]catalog.Song{}
	for _, song := range snap.Songs {
		byID[song.ID] = song
	}
	var out []TopSong
	for id, count := range plays {
		song, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, TopSong{ULID: song.ULID, Title: song.Title, PlayCount: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlayCount != out[j].PlayCount {
			return out[i].PlayCount > out[j].PlayCount
		}
		return out[i].Title < out[j].Title
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

func (s *MemoryStore) ListenerActivity(_ context.Context, account string, r DateRange) (*ListenerReport, error) {
	snap := s.catalog.Snapshot()
	report := &ListenerReport{}
	plays := map[int]int{}
	for _, l := range snap.Listens {
		if l.UserAccount != account || !r.Contains(l.ListenedAt) {
			continue
		}
		report.SongsPlayed++
		report.ListeningSeconds += int64(l.DurationSeconds)
		plays[l.SongID]++
	}
	report.DistinctSongs = len(plays)
	for _, p := range snap.Playlists {
		if p.UserAccount == account && r.Contains(p.CreatedAt) {
			report.PlaylistsCreated++
		}
	}
	for _, l := range snap.PlaylistLikes {
		if l.UserAccount == account && r.Contains(l.CreatedAt) {
			report.PlaylistsLiked++
		}
	}
	for _, l := range snap.SongLikes {
		if l.UserAccount == account && r.Contains(l.CreatedAt) {
			report.SongsLiked++
		}
	}
	for _, l := range snap.AlbumLikes {
		if l.UserAccount == account && r.Contains(l.CreatedAt) {
			report.AlbumsLiked++
		}
	}
	report.TopSongs = topSongs(snap, plays)
	return report, nil
}

func (s *MemoryStore) ArtistActivity(_ context.Context, account string, r DateRange) (*ArtistReport, error) {
	snap := s.catalog.Snapshot()
	report := &ArtistReport{}

	mine := map[int]catalog.Song{}
	for _, song := range snap.Songs {
		if song.ArtistAccount == account {
			mine[song.ID] = song
		}
	}
	plays := map[int]int{}
	for _, l := range snap.Listens {
		if _, ok := mine[l.SongID]; !ok || !r.Contains(l.ListenedAt) {
			continue
		}
		plays[l.SongID]++
		if l.UserAccount != account {
			report.PlaysByOthers++
		}
	}

	owners := map[int]string{}
	for _, p := range snap.Playlists {
		owners[p.ID] = p.UserAccount
	}
	for _, ps := range snap.PlaylistSongs {
		if _, ok := mine[ps.SongID]; ok && owners[ps.PlaylistID] != account {
			report.PlaylistAdds++
		}
	}

	albums := map[int]struct{}{}
	for _, a := range snap.Albums {
		if a.ArtistAccount != account {
			continue
		}
		albums[a.ID] = struct{}{}
		if r.Contains(a.CreatedAt) {
			report.AlbumsCreated++
		}
	}
	for _, l := range snap.AlbumLikes {
		if _, ok := albums[l.AlbumID]; ok && l.UserAccount != account && r.Contains(l.CreatedAt) {
			report.AlbumsLiked++
		}
	}

	genreNames := map[int]string{}
	for _, g := range snap.Genres {
		genreNames[g.ID] = g.Name
	}
	byGenre := map[string]int{}
	for _, song := range mine {
		name := "Unknown"
		if song.GenreID != nil {
			if n, ok := genreNames[*song.GenreID]; ok {
				name = n
			}
		}
		byGenre[name]++
	}
	var genres []GenreShare
	for name, count := range byGenre {
		genres = append(genres, GenreShare{Genre: name, Count: count, Percentage: percentage(count, len(mine))})
	}
	sort.Slice(genres, func(i, j int) bool {
		if genres[i].Count != genres[j].Count {
			return genres[i].Count > genres[j].Count
		}
		return genres[i].Genre < genres[j].Genre
	})
	report.Genres = genres

	report.TopSongs = topSongs(snap, plays)
	return report, nil
}
