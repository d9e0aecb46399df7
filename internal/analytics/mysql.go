package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/apperr"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/ledger"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/user"
)

// MySQLStore implements Store with parameterized aggregate queries.
// Every population query carries the Analyst exclusion in SQL.
type MySQLStore struct {
	pool *sqlx.DB
}

func NewMySQLStore(pool *sqlx.DB) *MySQLStore {
	return &MySQLStore{pool: pool}
}

// bounds converts the inclusive day range into a half-open timestamp
// pair for SQL comparison.
func bounds(r DateRange) (time.Time, time.Time) {
	return r.Start, r.End.AddDate(0, 0, 1)
}

func (s *MySQLStore) JoinedUsers(ctx context.Context, r DateRange) ([]user.User, error) {
	lo, hi := bounds(r)
	var rows []user.User
	if err := s.pool.SelectContext(
		ctx, &rows,
		"SELECT * FROM users WHERE `created_at` >= ? AND `created_at` < ? AND `user_type` != 'Analyst'",
		lo, hi,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Select joined users: %w", err))
	}
	return rows, nil
}

func (s *MySQLStore) LoginFacts(ctx context.Context, r DateRange) ([]LoginFact, error) {
	lo, hi := bounds(r)
	var rows []LoginFact
	if err := s.pool.SelectContext(
		ctx, &rows,
		"SELECT l.`user_account`, u.`user_type`, l.`login_at`, l.`session_duration_seconds`, l.`songs_played`, l.`songs_uploaded`"+
			" FROM user_logins l JOIN users u ON u.`account` = l.`user_account`"+
			" WHERE l.`login_at` >= ? AND l.`login_at` < ? AND u.`user_type` != 'Analyst'",
		lo, hi,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Select login facts: %w", err))
	}
	return rows, nil
}

func (s *MySQLStore) PlaylistFacts(ctx context.Context, r DateRange) (*PlaylistStats, error) {
	lo, hi := bounds(r)
	stats := &PlaylistStats{}
	if err := s.pool.GetContext(
		ctx, stats,
		"SELECT"+
			" COUNT(CASE WHEN p.`is_public` THEN 1 END) AS public_created,"+
			" COUNT(CASE WHEN NOT p.`is_public` THEN 1 END) AS private_created"+
			" FROM playlists p JOIN users u ON u.`account` = p.`user_account`"+
			" WHERE p.`created_at` >= ? AND p.`created_at` < ? AND u.`user_type` != 'Analyst'",
		lo, hi,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Select playlist counts: %w", err))
	}
	if err := s.pool.GetContext(
		ctx, stats,
		"SELECT COUNT(*) AS total_likes, COUNT(DISTINCT pl.`playlist_id`) AS distinct_liked"+
			" FROM playlist_likes pl JOIN users u ON u.`account` = pl.`user_account`"+
			" WHERE pl.`created_at` >= ? AND pl.`created_at` < ? AND u.`user_type` != 'Analyst'",
		lo, hi,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Select playlist likes: %w", err))
	}
	return stats, nil
}

func (s *MySQLStore) AlbumFacts(ctx context.Context, r DateRange) (*AlbumStats, error) {
	lo, hi := bounds(r)
	stats := &AlbumStats{}
	if err := s.pool.GetContext(
		ctx, &stats.Created,
		"SELECT COUNT(*) FROM albums WHERE `created_at` >= ? AND `created_at` < ?",
		lo, hi,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Select album counts: %w", err))
	}
	if err := s.pool.GetContext(
		ctx, stats,
		"SELECT COUNT(*) AS total_likes, COUNT(DISTINCT al.`album_id`) AS distinct_liked"+
			" FROM album_likes al JOIN users u ON u.`account` = al.`user_account`"+
			" WHERE al.`created_at` >= ? AND al.`created_at` < ? AND u.`user_type` != 'Analyst'",
		lo, hi,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Select album likes: %w", err))
	}
	return stats, nil
}

func (s *MySQLStore) UserByAccount(ctx context.Context, username string) (*user.User, error) {
	var u user.User
	err := s.pool.GetContext(
		ctx, &u,
		"SELECT * FROM users WHERE BINARY `account` = ?",
		username,
	)
	if err == sql.ErrNoRows {
		// case-insensitive fallback
		err = s.pool.GetContext(
			ctx, &u,
			"SELECT * FROM users WHERE LOWER(`account`) = LOWER(?) LIMIT 1",
			username,
		)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(fmt.Errorf("error Get users by account=%s: %w", username, err))
	}
	return &u, nil
}

func (s *MySQLStore) UserLogins(ctx context.Context, account string, r DateRange) ([]ledger.Login, error) {
	lo, hi := bounds(r)
	var rows []ledger.Login
	if err := s.pool.SelectContext(
		ctx, &rows,
		"SELECT * FROM user_logins WHERE `user_account` = ? AND `login_at` >= ? AND `login_at` < ? ORDER BY `login_at`",
		account, lo, hi,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Select user_logins by user_account=%s: %w", account, err))
	}
	return rows, nil
}

func (s *MySQLStore) ListenerActivity(ctx context.Context, account string, r DateRange) (*ListenerReport, error) {
	lo, hi := bounds(r)
	report := &ListenerReport{}
	if err := s.pool.GetContext(
		ctx, report,
		"SELECT COUNT(*) AS songs_played, COUNT(DISTINCT `song_id`) AS distinct_songs, COALESCE(SUM(`duration_seconds`), 0) AS listening_seconds"+
			" FROM listening_history WHERE `user_account` = ? AND `listened_at` >= ? AND `listened_at` < ?",
		account, lo, hi,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Select listening_history by user_account=%s: %w", account, err))
	}
	counts := []struct {
		dest  *int
		query string
	}{
		{&report.PlaylistsCreated, "SELECT COUNT(*) FROM playlists WHERE `user_account` = ? AND `created_at` >= ? AND `created_at` < ?"},
		{&report.PlaylistsLiked, "SELECT COUNT(*) FROM playlist_likes WHERE `user_account` = ? AND `created_at` >= ? AND `created_at` < ?"},
		{&report.SongsLiked, "SELECT COUNT(*) FROM song_likes WHERE `user_account` = ? AND `created_at` >= ? AND `created_at` < ?"},
		{&report.AlbumsLiked, "SELECT COUNT(*) FROM album_likes WHERE `user_account` = ? AND `created_at` >= ? AND `created_at` < ?"},
	}
	for _, c := range counts {
		if err := s.pool.GetContext(ctx, c.dest, c.query, account, lo, hi); err != nil {
			return nil, apperr.Internal(fmt.Errorf("error Count listener activity by user_account=%s: %w", account, err))
		}
	}
	if err := s.pool.SelectContext(
		ctx, &report.TopSongs,
		"SELECT s.`ulid`, s.`title`, COUNT(*) AS play_count"+
			" FROM listening_history h JOIN songs s ON s.`id` = h.`song_id`"+
			" WHERE h.`user_account` = ? AND h.`listened_at` >= ? AND h.`listened_at` < ?"+
			" GROUP BY s.`id`, s.`ulid`, s.`title` ORDER BY play_count DESC, s.`title` LIMIT 5",
		account, lo, hi,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Select top songs by user_account=%s: %w", account, err))
	}
	return report, nil
}

func (s *MySQLStore) ArtistActivity(ctx context.Context, account string, r DateRange) (*ArtistReport, error) {
	lo, hi := bounds(r)
	report := &ArtistReport{}
	if err := s.pool.GetContext(
		ctx, &report.PlaysByOthers,
		"SELECT COUNT(*) FROM listening_history h JOIN songs s ON s.`id` = h.`song_id`"+
			" WHERE s.`artist_account` = ? AND h.`user_account` != ? AND h.`listened_at` >= ? AND h.`listened_at` < ?",
		account, account, lo, hi,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Count plays by others for artist=%s: %w", account, err))
	}
	// playlist membership is not timestamped, so adds are counted over
	// the current state rather than the window
	if err := s.pool.GetContext(
		ctx, &report.PlaylistAdds,
		"SELECT COUNT(*) FROM playlist_song ps"+
			" JOIN songs s ON s.`id` = ps.`song_id`"+
			" JOIN playlists p ON p.`id` = ps.`playlist_id`"+
			" WHERE s.`artist_account` = ? AND p.`user_account` != ?",
		account, account,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Count playlist adds for artist=%s: %w", account, err))
	}
	if err := s.pool.GetContext(
		ctx, &report.AlbumsCreated,
		"SELECT COUNT(*) FROM albums WHERE `artist_account` = ? AND `created_at` >= ? AND `created_at` < ?",
		account, lo, hi,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Count albums for artist=%s: %w", account, err))
	}
	if err := s.pool.GetContext(
		ctx, &report.AlbumsLiked,
		"SELECT COUNT(*) FROM album_likes al JOIN albums a ON a.`id` = al.`album_id`"+
			" WHERE a.`artist_account` = ? AND al.`user_account` != ? AND al.`created_at` >= ? AND al.`created_at` < ?",
		account, account, lo, hi,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Count album likes for artist=%s: %w", account, err))
	}

	var genreRows []struct {
		Genre string `db:"genre"`
		Count int    `db:"count"`
	}
	if err := s.pool.SelectContext(
		ctx, &genreRows,
		"SELECT COALESCE(g.`name`, 'Unknown') AS genre, COUNT(*) AS count"+
			" FROM songs s LEFT JOIN genres g ON g.`id` = s.`genre_id`"+
			" WHERE s.`artist_account` = ? GROUP BY genre ORDER BY count DESC, genre",
		account,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Select genre distribution for artist=%s: %w", account, err))
	}
	catalogSize := 0
	for _, g := range genreRows {
		catalogSize += g.Count
	}
	for _, g := range genreRows {
		report.Genres = append(report.Genres, GenreShare{
			Genre:      g.Genre,
			Count:      g.Count,
			Percentage: percentage(g.Count, catalogSize),
		})
	}

	if err := s.pool.SelectContext(
		ctx, &report.TopSongs,
		"SELECT s.`ulid`, s.`title`, COUNT(*) AS play_count"+
			" FROM listening_history h JOIN songs s ON s.`id` = h.`song_id`"+
			" WHERE s.`artist_account` = ? AND h.`listened_at` >= ? AND h.`listened_at` < ?"+
			" GROUP BY s.`id`, s.`ulid`, s.`title` ORDER BY play_count DESC, s.`title` LIMIT 5",
		account, lo, hi,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Select top songs for artist=%s: %w", account, err))
	}
	return report, nil
}
