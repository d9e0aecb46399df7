package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/apperr"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/user"
)

func newFixture(t *testing.T) (*MemoryRepository, *user.MemoryRepository) {
	t.Helper()
	users := user.NewMemoryRepository()
	return NewMemoryRepository(users), users
}

func seedUser(t *testing.T, users *user.MemoryRepository, account string, typ user.UserType) {
	t.Helper()
	u := &user.User{
		Account:     account,
		DisplayName: account,
		DateOfBirth: time.Date(1995, 3, 1, 0, 0, 0, 0, time.UTC),
		UserType:    typ,
		Status:      user.StatusActive,
		CreatedAt:   time.Now(),
	}
	bio := ""
	if typ == user.TypeArtist {
		bio = "bio"
	}
	if err := users.Create(context.Background(), u, bio); err != nil {
		t.Fatalf("seed user %s: %v", account, err)
	}
}

func seedSong(t *testing.T, repo *MemoryRepository, ulid, artist string, albumID *int) *Song {
	t.Helper()
	s := &Song{
		ULID:            ulid,
		Title:           "song " + ulid,
		ArtistAccount:   artist,
		AlbumID:         albumID,
		DurationSeconds: 200,
		CreatedAt:       time.Now(),
	}
	if err := repo.CreateSong(context.Background(), s); err != nil {
		t.Fatalf("seed song %s: %v", ulid, err)
	}
	return s
}

func TestRateSongUpsert(t *testing.T) {
	ctx := context.Background()
	repo, users := newFixture(t)
	seedUser(t, users, "artist1", user.TypeArtist)
	seedUser(t, users, "listener1", user.TypeListener)
	seedUser(t, users, "listener2", user.TypeListener)
	song := seedSong(t, repo, "01SONG", "artist1", nil)
	at := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	// re-rating replaces the row instead of stacking a second one
	if _, err := repo.RateSong(ctx, "listener1", song.ID, 4, at); err != nil {
		t.Fatal(err)
	}
	got, err := repo.RateSong(ctx, "listener1", song.ID, 5, at.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalRatings != 1 || got.AverageRating != 5.00 {
		t.Errorf("after re-rate: total=%d avg=%.2f, want 1/5.00", got.TotalRatings, got.AverageRating)
	}

	got, err = repo.RateSong(ctx, "listener2", song.ID, 4, at)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalRatings != 2 || got.AverageRating != 4.50 {
		t.Errorf("two raters: total=%d avg=%.2f, want 2/4.50", got.TotalRatings, got.AverageRating)
	}

	got, err = repo.DeleteSongRating(ctx, "listener2", song.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalRatings != 1 || got.AverageRating != 5.00 {
		t.Errorf("after delete: total=%d avg=%.2f, want 1/5.00", got.TotalRatings, got.AverageRating)
	}

	// removing the last rating resets the aggregates, not NULLs them
	got, err = repo.DeleteSongRating(ctx, "listener1", song.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalRatings != 0 || got.AverageRating != 0.00 {
		t.Errorf("last delete: total=%d avg=%.2f, want 0/0.00", got.TotalRatings, got.AverageRating)
	}
}

func TestRateSongValidation(t *testing.T) {
	ctx := context.Background()
	repo, users := newFixture(t)
	seedUser(t, users, "artist1", user.TypeArtist)
	seedUser(t, users, "listener1", user.TypeListener)
	song := seedSong(t, repo, "01SONG", "artist1", nil)

	for _, rating := range []int{0, 6, -1} {
		if _, err := repo.RateSong(ctx, "listener1", song.ID, rating, time.Now()); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("rating %d: err = %v, want validation", rating, err)
		}
	}
	if _, err := repo.DeleteSongRating(ctx, "listener1", song.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("delete missing rating: err = %v, want not-found", err)
	}
}

func TestFollowVerificationThreshold(t *testing.T) {
	ctx := context.Background()
	repo, users := newFixture(t)
	seedUser(t, users, "artist1", user.TypeArtist)
	at := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	for i := 1; i < VerificationThreshold; i++ {
		acc := fmt.Sprintf("fan%03d", i)
		seedUser(t, users, acc, user.TypeListener)
		created, err := repo.FollowArtist(ctx, acc, "artist1", at)
		if err != nil {
			t.Fatal(err)
		}
		if !created {
			t.Fatalf("follow %s reported duplicate", acc)
		}
	}
	profile, err := users.GetArtist(ctx, "artist1")
	if err != nil {
		t.Fatal(err)
	}
	if profile.IsVerified {
		t.Fatalf("verified at %d followers, threshold is %d", VerificationThreshold-1, VerificationThreshold)
	}

	seedUser(t, users, "fan100", user.TypeListener)
	if _, err := repo.FollowArtist(ctx, "fan100", "artist1", at); err != nil {
		t.Fatal(err)
	}
	profile, _ = users.GetArtist(ctx, "artist1")
	if !profile.IsVerified {
		t.Fatal("not verified at threshold")
	}
	if profile.VerifiedBy != nil {
		t.Errorf("automatic verification attributed to %q", *profile.VerifiedBy)
	}
	if profile.VerifiedAt == nil {
		t.Error("verified_at not stamped")
	}

	// duplicate follow is a no-op, not an error
	created, err := repo.FollowArtist(ctx, "fan100", "artist1", at)
	if err != nil || created {
		t.Errorf("duplicate follow: created=%t err=%v", created, err)
	}

	// dropping back under the threshold clears verification
	removed, err := repo.UnfollowArtist(ctx, "fan100", "artist1")
	if err != nil || !removed {
		t.Fatalf("unfollow: removed=%t err=%v", removed, err)
	}
	profile, _ = users.GetArtist(ctx, "artist1")
	if profile.IsVerified {
		t.Error("verification survived dropping below the threshold")
	}
	if count, _ := repo.FollowerCount(ctx, "artist1"); count != VerificationThreshold-1 {
		t.Errorf("follower count = %d, want %d", count, VerificationThreshold-1)
	}

	// unfollow without a follow row is a no-op too
	removed, err = repo.UnfollowArtist(ctx, "fan100", "artist1")
	if err != nil || removed {
		t.Errorf("repeat unfollow: removed=%t err=%v", removed, err)
	}
}

func TestDeleteAlbumCascades(t *testing.T) {
	ctx := context.Background()
	repo, users := newFixture(t)
	seedUser(t, users, "artist1", user.TypeArtist)
	seedUser(t, users, "listener1", user.TypeListener)
	at := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	album := &Album{ULID: "01ALBUM", Title: "album", ArtistAccount: "artist1", ReleaseDate: at, CreatedAt: at}
	if err := repo.CreateAlbum(ctx, album); err != nil {
		t.Fatal(err)
	}
	inAlbum := seedSong(t, repo, "01SONGA", "artist1", &album.ID)
	loose := seedSong(t, repo, "01SONGB", "artist1", nil)

	playlist := &Playlist{ULID: "01PLAYLIST", Name: "mix", UserAccount: "listener1", CreatedAt: at, UpdatedAt: at}
	if err := repo.CreatePlaylist(ctx, playlist); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdatePlaylist(ctx, playlist.ID, "mix", true, []int{inAlbum.ID, loose.ID}, at); err != nil {
		t.Fatal(err)
	}
	if err := repo.LikeSong(ctx, "listener1", inAlbum.ID, at); err != nil {
		t.Fatal(err)
	}
	if err := repo.RecordListen(ctx, "listener1", inAlbum.ID, at, 200); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.RateSong(ctx, "listener1", inAlbum.ID, 5, at); err != nil {
		t.Fatal(err)
	}
	if err := repo.LikeAlbum(ctx, "listener1", album.ID, at); err != nil {
		t.Fatal(err)
	}

	if err := repo.DeleteAlbum(ctx, album.ID); err != nil {
		t.Fatalf("DeleteAlbum: %v", err)
	}

	if _, err := repo.AlbumByULID(ctx, "01ALBUM"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("album survived: %v", err)
	}
	if _, err := repo.SongByULID(ctx, "01SONGA"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("album song survived: %v", err)
	}
	if _, err := repo.SongByULID(ctx, "01SONGB"); err != nil {
		t.Errorf("unrelated song deleted: %v", err)
	}

	detail, err := repo.PlaylistDetail(ctx, "01PLAYLIST", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(detail.Songs) != 1 || detail.Songs[0].ID != loose.ID {
		t.Errorf("playlist songs after cascade = %+v", detail.Songs)
	}

	snap := repo.Snapshot()
	if len(snap.SongLikes) != 0 || len(snap.Listens) != 0 || len(snap.SongRatings) != 0 {
		t.Errorf("interaction rows survived cascade: likes=%d listens=%d ratings=%d",
			len(snap.SongLikes), len(snap.Listens), len(snap.SongRatings))
	}
	if len(snap.AlbumLikes) != 0 {
		t.Errorf("album likes survived: %d", len(snap.AlbumLikes))
	}
}

func TestPlaylistLifecycle(t *testing.T) {
	ctx := context.Background()
	repo, users := newFixture(t)
	seedUser(t, users, "artist1", user.TypeArtist)
	seedUser(t, users, "listener1", user.TypeListener)
	seedUser(t, users, "listener2", user.TypeListener)
	at := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	songA := seedSong(t, repo, "01SONGA", "artist1", nil)
	songB := seedSong(t, repo, "01SONGB", "artist1", nil)

	p := &Playlist{ULID: "01PL", Name: "mix", UserAccount: "listener1", IsPublic: false, CreatedAt: at, UpdatedAt: at}
	if err := repo.CreatePlaylist(ctx, p); err != nil {
		t.Fatal(err)
	}

	// private playlists stay out of the public recent feed
	recent, err := repo.RecentPlaylists(ctx, nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 0 {
		t.Errorf("private playlist listed publicly: %+v", recent)
	}

	if err := repo.UpdatePlaylist(ctx, p.ID, "mix v2", true, []int{songB.ID, songA.ID}, at.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := repo.LikePlaylist(ctx, "listener2", p.ID, at); err != nil {
		t.Fatal(err)
	}
	// duplicate like is a no-op
	if err := repo.LikePlaylist(ctx, "listener2", p.ID, at); err != nil {
		t.Fatal(err)
	}

	viewer := "listener2"
	detail, err := repo.PlaylistDetail(ctx, "01PL", &viewer)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Name != "mix v2" || !detail.IsPublic {
		t.Errorf("update not applied: %+v", detail.PlaylistSummary)
	}
	if detail.LikeCount != 1 || !detail.IsLiked {
		t.Errorf("likes = %d liked=%t, want 1/true", detail.LikeCount, detail.IsLiked)
	}
	if len(detail.Songs) != 2 || detail.Songs[0].ID != songB.ID || detail.Songs[1].ID != songA.ID {
		t.Errorf("song order = %+v, want [B A]", detail.Songs)
	}

	recent, err = repo.RecentPlaylists(ctx, &viewer, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].ULID != "01PL" {
		t.Errorf("recent = %+v", recent)
	}

	mine, err := repo.PlaylistsByUser(ctx, "listener1")
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].SongCount != 2 {
		t.Errorf("owner listing = %+v", mine)
	}

	if err := repo.DeletePlaylist(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.PlaylistByULID(ctx, "01PL"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("playlist survived delete: %v", err)
	}
	snap := repo.Snapshot()
	if len(snap.PlaylistSongs) != 0 || len(snap.PlaylistLikes) != 0 {
		t.Errorf("playlist rows survived: songs=%d likes=%d", len(snap.PlaylistSongs), len(snap.PlaylistLikes))
	}
}
