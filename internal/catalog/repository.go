package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/apperr"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/db"
)

// Repository is the catalog store. Every derived-statistic rule runs
// in the same transaction as the write that triggers it.
type Repository interface {
	Genres(ctx context.Context) ([]Genre, error)
	CreateGenre(ctx context.Context, name string) (*Genre, error)

	CreateAlbum(ctx context.Context, a *Album) error
	AlbumByULID(ctx context.Context, ulid string) (*Album, error)
	// DeleteAlbum cascades to the album's songs, each of which
	// cascades per DeleteSong.
	DeleteAlbum(ctx context.Context, albumID int) error

	CreateSong(ctx context.Context, s *Song) error
	SongByULID(ctx context.Context, ulid string) (*Song, error)
	// DeleteSong removes the song from all playlists, likes,
	// ratings and listening history.
	DeleteSong(ctx context.Context, songID int) error

	// RateSong upserts the (user, song) rating and recomputes the
	// song's aggregates. Rating must be 1-5.
	RateSong(ctx context.Context, account string, songID, rating int, at time.Time) (*Song, error)
	DeleteSongRating(ctx context.Context, account string, songID int) (*Song, error)
	RateAlbum(ctx context.Context, account string, albumID, rating int, at time.Time) (*Album, error)
	DeleteAlbumRating(ctx context.Context, account string, albumID int) (*Album, error)

	// Likes are idempotent: a duplicate like is a no-op.
	LikeSong(ctx context.Context, account string, songID int, at time.Time) error
	UnlikeSong(ctx context.Context, account string, songID int) error
	LikeAlbum(ctx context.Context, account string, albumID int, at time.Time) error
	UnlikeAlbum(ctx context.Context, account string, albumID int) error
	LikePlaylist(ctx context.Context, account string, playlistID int, at time.Time) error
	UnlikePlaylist(ctx context.Context, account string, playlistID int) error

	// FollowArtist reports whether a new follow row was created and
	// applies the verification threshold rule. UnfollowArtist
	// applies the inverse rule.
	FollowArtist(ctx context.Context, account, artistAccount string, at time.Time) (bool, error)
	UnfollowArtist(ctx context.Context, account, artistAccount string) (bool, error)
	FollowerCount(ctx context.Context, artistAccount string) (int, error)

	// RecordListen appends one listening-history row.
	RecordListen(ctx context.Context, account string, songID int, at time.Time, durationSeconds int) error

	CreatePlaylist(ctx context.Context, p *Playlist) error
	PlaylistByULID(ctx context.Context, ulid string) (*Playlist, error)
	UpdatePlaylist(ctx context.Context, playlistID int, name string, isPublic bool, songIDs []int, at time.Time) error
	DeletePlaylist(ctx context.Context, playlistID int) error
	PlaylistDetail(ctx context.Context, ulid string, viewerAccount *string) (*PlaylistDetail, error)
	RecentPlaylists(ctx context.Context, viewerAccount *string, limit int) ([]PlaylistSummary, error)
	// PopularPlaylists orders public playlists by like count; unliked
	// playlists are not listed.
	PopularPlaylists(ctx context.Context, viewerAccount *string, limit int) ([]PlaylistSummary, error)
	PlaylistsByUser(ctx context.Context, account string) ([]PlaylistSummary, error)
}

// MySQLRepository implements Repository on the catalog tables.
type MySQLRepository struct {
	pool *sqlx.DB
}

func NewMySQLRepository(pool *sqlx.DB) *MySQLRepository {
	return &MySQLRepository{pool: pool}
}

func (r *MySQLRepository) begin(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.pool.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("error BeginTxx: %w", err))
	}
	return tx, nil
}

func (r *MySQLRepository) Genres(ctx context.Context) ([]Genre, error) {
	var rows []Genre
	if err := r.pool.SelectContext(ctx, &rows, "SELECT * FROM genres ORDER BY `name`"); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Select genres: %w", err))
	}
	return rows, nil
}

func (r *MySQLRepository) CreateGenre(ctx context.Context, name string) (*Genre, error) {
	res, err := r.pool.ExecContext(ctx, "INSERT INTO genres (`name`) VALUES (?)", name)
	if err != nil {
		if db.IsDuplicateEntry(err) {
			return nil, apperr.Validation("genre already exists")
		}
		return nil, apperr.Internal(fmt.Errorf("error Insert genres by name=%s: %w", name, err))
	}
	id, _ := res.LastInsertId()
	return &Genre{ID: int(id), Name: name}, nil
}

func (r *MySQLRepository) CreateAlbum(ctx context.Context, a *Album) error {
	res, err := r.pool.ExecContext(
		ctx,
		"INSERT INTO albums (`ulid`, `title`, `artist_account`, `release_date`, `average_rating`, `total_ratings`, `created_at`) VALUES (?, ?, ?, ?, 0.00, 0, ?)",
		a.ULID, a.Title, a.ArtistAccount, a.ReleaseDate, a.CreatedAt,
	)
	if err != nil {
		return apperr.Internal(fmt.Errorf("error Insert albums by ulid=%s: %w", a.ULID, err))
	}
	id, _ := res.LastInsertId()
	a.ID = int(id)
	return nil
}

func (r *MySQLRepository) AlbumByULID(ctx context.Context, ulid string) (*Album, error) {
	var a Album
	if err := r.pool.GetContext(ctx, &a, "SELECT * FROM albums WHERE `ulid` = ?", ulid); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("album not found")
		}
		return nil, apperr.Internal(fmt.Errorf("error Get albums by ulid=%s: %w", ulid, err))
	}
	return &a, nil
}

func (r *MySQLRepository) CreateSong(ctx context.Context, s *Song) error {
	res, err := r.pool.ExecContext(
		ctx,
		"INSERT INTO songs (`ulid`, `title`, `artist_account`, `album_id`, `genre_id`, `duration_seconds`, `average_rating`, `total_ratings`, `created_at`) VALUES (?, ?, ?, ?, ?, ?, 0.00, 0, ?)",
		s.ULID, s.Title, s.ArtistAccount, s.AlbumID, s.GenreID, s.DurationSeconds, s.CreatedAt,
	)
	if err != nil {
		return apperr.Internal(fmt.Errorf("error Insert songs by ulid=%s: %w", s.ULID, err))
	}
	id, _ := res.LastInsertId()
	s.ID = int(id)
	return nil
}

func (r *MySQLRepository) SongByULID(ctx context.Context, ulid string) (*Song, error) {
	var s Song
	if err := r.pool.GetContext(ctx, &s, "SELECT * FROM songs WHERE `ulid` = ?", ulid); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("song not found")
		}
		return nil, apperr.Internal(fmt.Errorf("error Get songs by ulid=%s: %w", ulid, err))
	}
	return &s, nil
}

// deleteSongTx runs the single-song cascade inside the caller's
// transaction.
func deleteSongTx(ctx context.Context, tx db.ConnOrTx, songID int) error {
	for _, q := range []string{
		"DELETE FROM playlist_song WHERE `song_id` = ?",
		"DELETE FROM song_likes WHERE `song_id` = ?",
		"DELETE FROM song_ratings WHERE `song_id` = ?",
		"DELETE FROM listening_history WHERE `song_id` = ?",
		"DELETE FROM songs WHERE `id` = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, songID); err != nil {
			return fmt.Errorf("error cascade delete song id=%d: %w", songID, err)
		}
	}
	return nil
}

func (r *MySQLRepository) DeleteSong(ctx context.Context, songID int) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	if err := deleteSongTx(ctx, tx, songID); err != nil {
		tx.Rollback()
		return apperr.Internal(err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal(fmt.Errorf("error Commit: %w", err))
	}
	return nil
}

func (r *MySQLRepository) DeleteAlbum(ctx context.Context, albumID int) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	var songIDs []int
	if err := tx.SelectContext(ctx, &songIDs, "SELECT `id` FROM songs WHERE `album_id` = ?", albumID); err != nil {
		tx.Rollback()
		return apperr.Internal(fmt.Errorf("error Select songs by album_id=%d: %w", albumID, err))
	}
	// two-level cascade: album -> songs -> playlist/like/history rows
	for _, songID := range songIDs {
		if err := deleteSongTx(ctx, tx, songID); err != nil {
			tx.Rollback()
			return apperr.Internal(err)
		}
	}
	for _, q := range []string{
		"DELETE FROM album_likes WHERE `album_id` = ?",
		"DELETE FROM album_ratings WHERE `album_id` = ?",
		"DELETE FROM albums WHERE `id` = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, albumID); err != nil {
			tx.Rollback()
			return apperr.Internal(fmt.Errorf("error cascade delete album id=%d: %w", albumID, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal(fmt.Errorf("error Commit: %w", err))
	}
	return nil
}

func validRating(rating int) error {
	if rating < 1 || rating > 5 {
		return apperr.Validation("rating must be between 1 and 5")
	}
	return nil
}

func (r *MySQLRepository) RateSong(ctx context.Context, account string, songID, rating int, at time.Time) (*Song, error) {
	if err := validRating(rating); err != nil {
		return nil, err
	}
	tx, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(
		ctx,
		"INSERT INTO song_ratings (`user_account`, `song_id`, `rating`, `created_at`, `updated_at`) VALUES (?, ?, ?, ?, ?) ON DUPLICATE KEY UPDATE `rating` = VALUES(`rating`), `updated_at` = VALUES(`updated_at`)",
		account, songID, rating, at, at,
	); err != nil {
		tx.Rollback()
		return nil, apperr.Internal(fmt.Errorf("error Upsert song_ratings by song_id=%d: %w", songID, err))
	}
	if err := recomputeRatingTx(ctx, tx, "songs", "song_ratings", "song_id", songID); err != nil {
		tx.Rollback()
		return nil, apperr.Internal(err)
	}
	var s Song
	if err := tx.GetContext(ctx, &s, "SELECT * FROM songs WHERE `id` = ?", songID); err != nil {
		tx.Rollback()
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("song not found")
		}
		return nil, apperr.Internal(fmt.Errorf("error Get songs by id=%d: %w", songID, err))
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Commit: %w", err))
	}
	return &s, nil
}

// recomputeRatingTx rewrites the target's denormalized aggregates from
// the fact rows. A deleted last rating resets the average to 0.00.
func recomputeRatingTx(ctx context.Context, tx db.ConnOrTx, targetTable, ratingTable, fkCol string, targetID int) error {
	q := fmt.Sprintf(
		"UPDATE %s SET `total_ratings` = (SELECT COUNT(*) FROM %s WHERE `%s` = ?), `average_rating` = (SELECT COALESCE(AVG(`rating`), 0) FROM %s WHERE `%s` = ?) WHERE `id` = ?",
		targetTable, ratingTable, fkCol, ratingTable, fkCol,
	)
	if _, err := tx.ExecContext(ctx, q, targetID, targetID, targetID); err != nil {
		return fmt.Errorf("error recompute %s aggregates for id=%d: %w", targetTable, targetID, err)
	}
	return nil
}

func (r *MySQLRepository) DeleteSongRating(ctx context.Context, account string, songID int) (*Song, error) {
	tx, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(
		ctx,
		"DELETE FROM song_ratings WHERE `user_account` = ? AND `song_id` = ?",
		account, songID,
	)
	if err != nil {
		tx.Rollback()
		return nil, apperr.Internal(fmt.Errorf("error Delete song_ratings by song_id=%d: %w", songID, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		tx.Rollback()
		return nil, apperr.NotFound("rating not found")
	}
	if err := recomputeRatingTx(ctx, tx, "songs", "song_ratings", "song_id", songID); err != nil {
		tx.Rollback()
		return nil, apperr.Internal(err)
	}
	var s Song
	if err := tx.GetContext(ctx, &s, "SELECT * FROM songs WHERE `id` = ?", songID); err != nil {
		tx.Rollback()
		return nil, apperr.Internal(fmt.Errorf("error Get songs by id=%d: %w", songID, err))
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Commit: %w", err))
	}
	return &s, nil
}

func (r *MySQLRepository) RateAlbum(ctx context.Context, account string, albumID, rating int, at time.Time) (*Album, error) {
	if err := validRating(rating); err != nil {
		return nil, err
	}
	tx, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(
		ctx,
		"INSERT INTO album_ratings (`user_account`, `album_id`, `rating`, `created_at`, `updated_at`) VALUES (?, ?, ?, ?, ?) ON DUPLICATE KEY UPDATE `rating` = VALUES(`rating`), `updated_at` = VALUES(`updated_at`)",
		account, albumID, rating, at, at,
	); err != nil {
		tx.Rollback()
		return nil, apperr.Internal(fmt.Errorf("error Upsert album_ratings by album_id=%d: %w", albumID, err))
	}
	if err := recomputeRatingTx(ctx, tx, "albums", "album_ratings", "album_id", albumID); err != nil {
		tx.Rollback()
		return nil, apperr.Internal(err)
	}
	var a Album
	if err := tx.GetContext(ctx, &a, "SELECT * FROM albums WHERE `id` = ?", albumID); err != nil {
		tx.Rollback()
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("album not found")
		}
		return nil, apperr.Internal(fmt.Errorf("error Get albums by id=%d: %w", albumID, err))
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Commit: %w", err))
	}
	return &a, nil
}

func (r *MySQLRepository) DeleteAlbumRating(ctx context.Context, account string, albumID int) (*Album, error) {
	tx, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(
		ctx,
		"DELETE FROM album_ratings WHERE `user_account` = ? AND `album_id` = ?",
		account, albumID,
	)
	if err != nil {
		tx.Rollback()
		return nil, apperr.Internal(fmt.Errorf("error Delete album_ratings by album_id=%d: %w", albumID, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		tx.Rollback()
		return nil, apperr.NotFound("rating not found")
	}
	if err := recomputeRatingTx(ctx, tx, "albums", "album_ratings", "album_id", albumID); err != nil {
		tx.Rollback()
		return nil, apperr.Internal(err)
	}
	var a Album
	if err := tx.GetContext(ctx, &a, "SELECT * FROM albums WHERE `id` = ?", albumID); err != nil {
		tx.Rollback()
		return nil, apperr.Internal(fmt.Errorf("error Get albums by id=%d: %w", albumID, err))
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Commit: %w", err))
	}
	return &a, nil
}

func (r *MySQLRepository) like(ctx context.Context, table, col string, account string, id int, at time.Time) error {
	q := fmt.Sprintf("INSERT INTO %s (`user_account`, `%s`, `created_at`) VALUES (?, ?, ?)", table, col)
	if _, err := r.pool.ExecContext(ctx, q, account, id, at); err != nil {
		if db.IsDuplicateEntry(err) {
			return nil
		}
		return apperr.Internal(fmt.Errorf("error Insert %s by %s=%d: %w", table, col, id, err))
	}
	return nil
}

func (r *MySQLRepository) unlike(ctx context.Context, table, col string, account string, id int) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE `user_account` = ? AND `%s` = ?", table, col)
	if _, err := r.pool.ExecContext(ctx, q, account, id); err != nil {
		return apperr.Internal(fmt.Errorf("error Delete %s by %s=%d: %w", table, col, id, err))
	}
	return nil
}

func (r *MySQLRepository) LikeSong(ctx context.Context, account string, songID int, at time.Time) error {
	return r.like(ctx, "song_likes", "song_id", account, songID, at)
}

func (r *MySQLRepository) UnlikeSong(ctx context.Context, account string, songID int) error {
	return r.unlike(ctx, "song_likes", "song_id", account, songID)
}

func (r *MySQLRepository) LikeAlbum(ctx context.Context, account string, albumID int, at time.Time) error {
	return r.like(ctx, "album_likes", "album_id", account, albumID, at)
}

func (r *MySQLRepository) UnlikeAlbum(ctx context.Context, account string, albumID int) error {
	return r.unlike(ctx, "album_likes", "album_id", account, albumID)
}

func (r *MySQLRepository) LikePlaylist(ctx context.Context, account string, playlistID int, at time.Time) error {
	return r.like(ctx, "playlist_likes", "playlist_id", account, playlistID, at)
}

func (r *MySQLRepository) UnlikePlaylist(ctx context.Context, account string, playlistID int) error {
	return r.unlike(ctx, "playlist_likes", "playlist_id", account, playlistID)
}

func (r *MySQLRepository) FollowArtist(ctx context.Context, account, artistAccount string, at time.Time) (bool, error) {
	tx, err := r.begin(ctx)
	if err != nil {
		return false, err
	}
	var verified bool
	if err := tx.GetContext(
		ctx, &verified,
		"SELECT `is_verified` FROM artists WHERE `user_account` = ? FOR UPDATE",
		artistAccount,
	); err != nil {
		tx.Rollback()
		if err == sql.ErrNoRows {
			return false, apperr.NotFound("artist not found")
		}
		return false, apperr.Internal(fmt.Errorf("error Get artists by user_account=%s: %w", artistAccount, err))
	}
	if _, err := tx.ExecContext(
		ctx,
		"INSERT INTO artist_follows (`user_account`, `artist_account`, `created_at`) VALUES (?, ?, ?)",
		account, artistAccount, at,
	); err != nil {
		tx.Rollback()
		if db.IsDuplicateEntry(err) {
			return false, nil
		}
		return false, apperr.Internal(fmt.Errorf("error Insert artist_follows by artist_account=%s: %w", artistAccount, err))
	}
	var count int
	if err := tx.GetContext(
		ctx, &count,
		"SELECT COUNT(*) FROM artist_follows WHERE `artist_account` = ?",
		artistAccount,
	); err != nil {
		tx.Rollback()
		return false, apperr.Internal(fmt.Errorf("error Count artist_follows by artist_account=%s: %w", artistAccount, err))
	}
	// threshold rule: flip to verified on the row that reaches the
	// threshold; auto-verification has no human verifier
	if !verified && count >= VerificationThreshold {
		if _, err := tx.ExecContext(
			ctx,
			"UPDATE artists SET `is_verified` = ?, `verified_at` = ?, `verified_by` = NULL WHERE `user_account` = ?",
			true, at, artistAccount,
		); err != nil {
			tx.Rollback()
			return false, apperr.Internal(fmt.Errorf("error Update artists verify by user_account=%s: %w", artistAccount, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return false, apperr.Internal(fmt.Errorf("error Commit: %w", err))
	}
	return true, nil
}

func (r *MySQLRepository) UnfollowArtist(ctx context.Context, account, artistAccount string) (bool, error) {
	tx, err := r.begin(ctx)
	if err != nil {
		return false, err
	}
	var verified bool
	if err := tx.GetContext(
		ctx, &verified,
		"SELECT `is_verified` FROM artists WHERE `user_account` = ? FOR UPDATE",
		artistAccount,
	); err != nil {
		tx.Rollback()
		if err == sql.ErrNoRows {
			return false, apperr.NotFound("artist not found")
		}
		return false, apperr.Internal(fmt.Errorf("error Get artists by user_account=%s: %w", artistAccount, err))
	}
	res, err := tx.ExecContext(
		ctx,
		"DELETE FROM artist_follows WHERE `user_account` = ? AND `artist_account` = ?",
		account, artistAccount,
	)
	if err != nil {
		tx.Rollback()
		return false, apperr.Internal(fmt.Errorf("error Delete artist_follows by artist_account=%s: %w", artistAccount, err))
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		tx.Rollback()
		return false, nil
	}
	var count int
	if err := tx.GetContext(
		ctx, &count,
		"SELECT COUNT(*) FROM artist_follows WHERE `artist_account` = ?",
		artistAccount,
	); err != nil {
		tx.Rollback()
		return false, apperr.Internal(fmt.Errorf("error Count artist_follows by artist_account=%s: %w", artistAccount, err))
	}
	if verified && count < VerificationThreshold {
		if _, err := tx.ExecContext(
			ctx,
			"UPDATE artists SET `is_verified` = ?, `verified_at` = NULL, `verified_by` = NULL WHERE `user_account` = ?",
			false, artistAccount,
		); err != nil {
			tx.Rollback()
			return false, apperr.Internal(fmt.Errorf("error Update artists unverify by user_account=%s: %w", artistAccount, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return false, apperr.Internal(fmt.Errorf("error Commit: %w", err))
	}
	return true, nil
}

func (r *MySQLRepository) FollowerCount(ctx context.Context, artistAccount string) (int, error) {
	var count int
	if err := r.pool.GetContext(
		ctx, &count,
		"SELECT COUNT(*) FROM artist_follows WHERE `artist_account` = ?",
		artistAccount,
	); err != nil {
		return 0, apperr.Internal(fmt.Errorf("error Count artist_follows by artist_account=%s: %w", artistAccount, err))
	}
	return count, nil
}

func (r *MySQLRepository) RecordListen(ctx context.Context, account string, songID int, at time.Time, durationSeconds int) error {
	if _, err := r.pool.ExecContext(
		ctx,
		"INSERT INTO listening_history (`user_account`, `song_id`, `listened_at`, `duration_seconds`) VALUES (?, ?, ?, ?)",
		account, songID, at, durationSeconds,
	); err != nil {
		return apperr.Internal(fmt.Errorf("error Insert listening_history by song_id=%d: %w", songID, err))
	}
	return nil
}

func (r *MySQLRepository) CreatePlaylist(ctx context.Context, p *Playlist) error {
	res, err := r.pool.ExecContext(
		ctx,
		"INSERT INTO playlists (`ulid`, `name`, `user_account`, `is_public`, `created_at`, `updated_at`) VALUES (?, ?, ?, ?, ?, ?)",
		p.ULID, p.Name, p.UserAccount, p.IsPublic, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return apperr.Internal(fmt.Errorf("error Insert playlists by ulid=%s: %w", p.ULID, err))
	}
	id, _ := res.LastInsertId()
	p.ID = int(id)
	return nil
}

func (r *MySQLRepository) PlaylistByULID(ctx context.Context, ulid string) (*Playlist, error) {
	var p Playlist
	if err := r.pool.GetContext(ctx, &p, "SELECT * FROM playlists WHERE `ulid` = ?", ulid); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("playlist not found")
		}
		return nil, apperr.Internal(fmt.Errorf("error Get playlists by ulid=%s: %w", ulid, err))
	}
	return &p, nil
}

func (r *MySQLRepository) UpdatePlaylist(ctx context.Context, playlistID int, name string, isPublic bool, songIDs []int, at time.Time) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(
		ctx,
		"UPDATE playlists SET `name` = ?, `is_public` = ?, `updated_at` = ? WHERE `id` = ?",
		name, isPublic, at, playlistID,
	); err != nil {
		tx.Rollback()
		return apperr.Internal(fmt.Errorf("error Update playlists by id=%d: %w", playlistID, err))
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM playlist_song WHERE `playlist_id` = ?", playlistID); err != nil {
		tx.Rollback()
		return apperr.Internal(fmt.Errorf("error Delete playlist_song by playlist_id=%d: %w", playlistID, err))
	}
	for i, songID := range songIDs {
		if _, err := tx.ExecContext(
			ctx,
			"INSERT INTO playlist_song (`playlist_id`, `sort_order`, `song_id`) VALUES (?, ?, ?)",
			playlistID, i+1, songID,
		); err != nil {
			tx.Rollback()
			return apperr.Internal(fmt.Errorf("error Insert playlist_song by playlist_id=%d, song_id=%d: %w", playlistID, songID, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal(fmt.Errorf("error Commit: %w", err))
	}
	return nil
}

func (r *MySQLRepository) DeletePlaylist(ctx context.Context, playlistID int) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	for _, q := range []string{
		"DELETE FROM playlist_song WHERE `playlist_id` = ?",
		"DELETE FROM playlist_likes WHERE `playlist_id` = ?",
		"DELETE FROM playlists WHERE `id` = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, playlistID); err != nil {
			tx.Rollback()
			return apperr.Internal(fmt.Errorf("error cascade delete playlist id=%d: %w", playlistID, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal(fmt.Errorf("error Commit: %w", err))
	}
	return nil
}

func (r *MySQLRepository) summaryTx(ctx context.Context, q db.ConnOrTx, p *Playlist, viewerAccount *string) (*PlaylistSummary, error) {
	var displayName string
	if err := q.GetContext(ctx, &displayName, "SELECT `display_name` FROM users WHERE `account` = ?", p.UserAccount); err != nil {
		return nil, fmt.Errorf("error Get users by account=%s: %w", p.UserAccount, err)
	}
	var songCount, likeCount int
	if err := q.GetContext(ctx, &songCount, "SELECT COUNT(*) FROM playlist_song WHERE `playlist_id` = ?", p.ID); err != nil {
		return nil, fmt.Errorf("error Count playlist_song by playlist_id=%d: %w", p.ID, err)
	}
	if err := q.GetContext(ctx, &likeCount, "SELECT COUNT(*) FROM playlist_likes WHERE `playlist_id` = ?", p.ID); err != nil {
		return nil, fmt.Errorf("error Count playlist_likes by playlist_id=%d: %w", p.ID, err)
	}
	var isLiked bool
	if viewerAccount != nil {
		var n int
		if err := q.GetContext(
			ctx, &n,
			"SELECT COUNT(*) FROM playlist_likes WHERE `playlist_id` = ? AND `user_account` = ?",
			p.ID, *viewerAccount,
		); err != nil {
			return nil, fmt.Errorf("error Count viewer playlist_likes by playlist_id=%d: %w", p.ID, err)
		}
		isLiked = n > 0
	}
	return &PlaylistSummary{
		ULID:            p.ULID,
		Name:            p.Name,
		UserDisplayName: displayName,
		UserAccount:     p.UserAccount,
		SongCount:       songCount,
		LikeCount:       likeCount,
		IsLiked:         isLiked,
		IsPublic:        p.IsPublic,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}, nil
}

func (r *MySQLRepository) PlaylistDetail(ctx context.Context, ulid string, viewerAccount *string) (*PlaylistDetail, error) {
	p, err := r.PlaylistByULID(ctx, ulid)
	if err != nil {
		return nil, err
	}
	summary, err := r.summaryTx(ctx, r.pool, p, viewerAccount)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	var songs []Song
	if err := r.pool.SelectContext(
		ctx, &songs,
		"SELECT s.* FROM songs s JOIN playlist_song ps ON ps.song_id = s.id WHERE ps.playlist_id = ? ORDER BY ps.sort_order",
		p.ID,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Select playlist songs by playlist_id=%d: %w", p.ID, err))
	}
	return &PlaylistDetail{PlaylistSummary: summary, Songs: songs}, nil
}

func (r *MySQLRepository) RecentPlaylists(ctx context.Context, viewerAccount *string, limit int) ([]PlaylistSummary, error) {
	var rows []Playlist
	if err := r.pool.SelectContext(
		ctx, &rows,
		"SELECT * FROM playlists WHERE `is_public` = ? ORDER BY `created_at` DESC LIMIT ?",
		true, limit,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Select recent playlists: %w", err))
	}
	out := make([]PlaylistSummary, 0, len(rows))
	for i := range rows {
		s, err := r.summaryTx(ctx, r.pool, &rows[i], viewerAccount)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *MySQLRepository) PopularPlaylists(ctx context.Context, viewerAccount *string, limit int) ([]PlaylistSummary, error) {
	var rows []Playlist
	if err := r.pool.SelectContext(
		ctx, &rows,
		"SELECT p.* FROM playlists p JOIN playlist_likes pl ON pl.playlist_id = p.id WHERE p.`is_public` = ? GROUP BY p.`id` ORDER BY COUNT(*) DESC, p.`created_at` DESC LIMIT ?",
		true, limit,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Select popular playlists: %w", err))
	}
	out := make([]PlaylistSummary, 0, len(rows))
	for i := range rows {
		s, err := r.summaryTx(ctx, r.pool, &rows[i], viewerAccount)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *MySQLRepository) PlaylistsByUser(ctx context.Context, account string) ([]PlaylistSummary, error) {
	var rows []Playlist
	if err := r.pool.SelectContext(
		ctx, &rows,
		"SELECT * FROM playlists WHERE `user_account` = ? ORDER BY `created_at` DESC",
		account,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Select playlists by user_account=%s: %w", account, err))
	}
	out := make([]PlaylistSummary, 0, len(rows))
	for i := range rows {
		s, err := r.summaryTx(ctx, r.pool, &rows[i], &account)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, *s)
	}
	return out, nil
}
