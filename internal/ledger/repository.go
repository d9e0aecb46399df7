package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/apperr"
)

const fkNoReferencedRow = 1452

// Repository is the login ledger store. Implementations keep the
// owner's online flag consistent with the open/closed state of the
// row, in the same transaction as the triggering write.
type Repository interface {
	// CreateLogin opens a new ledger row with zeroed counters and
	// flips the owner online. A second open login for the same user
	// is deliberately not rejected; ActiveLogin only ever routes to
	// the most recent one.
	CreateLogin(ctx context.Context, account string, at time.Time) (*Login, error)

	// ActiveLogin returns the most recent open row for the user.
	ActiveLogin(ctx context.Context, account string) (*Login, error)

	// AddActivity adds the supplied increments to the open row's
	// counters. An empty delta writes nothing.
	AddActivity(ctx context.Context, loginID int64, delta ActivityDelta) error

	// CloseLogin stamps logout_at and the whole-second duration and
	// flips the owner offline. Closing an already-closed login is a
	// not-found error, not a duration recompute.
	CloseLogin(ctx context.Context, loginID int64, at time.Time) (*Login, error)

	// InactiveLogins returns open rows older than the threshold.
	// The sweep is poll-and-act; callers schedule it externally.
	InactiveLogins(ctx context.Context, olderThan time.Duration, now time.Time) ([]Login, error)

	// SweepInactive closes every open row older than the threshold
	// and returns how many were closed.
	SweepInactive(ctx context.Context, olderThan time.Duration, now time.Time) (int, error)
}

// MySQLRepository implements Repository on the user_logins table.
type MySQLRepository struct {
	pool *sqlx.DB
}

func NewMySQLRepository(pool *sqlx.DB) *MySQLRepository {
	return &MySQLRepository{pool: pool}
}

func (r *MySQLRepository) CreateLogin(ctx context.Context, account string, at time.Time) (*Login, error) {
	tx, err := r.pool.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("error BeginTxx: %w", err))
	}
	res, err := tx.ExecContext(
		ctx,
		"INSERT INTO user_logins (`user_account`, `login_at`, `songs_played`, `songs_liked`, `artists_followed`, `songs_uploaded`) VALUES (?, ?, 0, 0, 0, 0)",
		account, at,
	)
	if err != nil {
		tx.Rollback()
		if merr, ok := err.(*mysql.MySQLError); ok && merr.Number == fkNoReferencedRow {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(fmt.Errorf("error Insert user_logins by user_account=%s: %w", account, err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, apperr.Internal(fmt.Errorf("error LastInsertId: %w", err))
	}
	// online-status rule: login insert puts the owner online
	if _, err := tx.ExecContext(
		ctx,
		"UPDATE users SET `is_online` = ?, `last_login_at` = ? WHERE `account` = ?",
		true, at, account,
	); err != nil {
		tx.Rollback()
		return nil, apperr.Internal(fmt.Errorf("error Update users online by account=%s: %w", account, err))
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Commit: %w", err))
	}
	return &Login{ID: id, UserAccount: account, LoginAt: at}, nil
}

func (r *MySQLRepository) ActiveLogin(ctx context.Context, account string) (*Login, error) {
	var row Login
	if err := r.pool.GetContext(
		ctx, &row,
		"SELECT * FROM user_logins WHERE `user_account` = ? AND `logout_at` IS NULL ORDER BY `login_at` DESC, `id` DESC LIMIT 1",
		account,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("no active login")
		}
		return nil, apperr.Internal(fmt.Errorf("error Get user_logins by user_account=%s: %w", account, err))
	}
	return &row, nil
}

func (r *MySQLRepository) AddActivity(ctx context.Context, loginID int64, delta ActivityDelta) error {
	if delta.Empty() {
		return nil
	}
	res, err := r.pool.ExecContext(
		ctx,
		"UPDATE user_logins SET `songs_played` = `songs_played` + ?, `songs_liked` = `songs_liked` + ?, `artists_followed` = `artists_followed` + ?, `songs_uploaded` = `songs_uploaded` + ? WHERE `id` = ? AND `logout_at` IS NULL",
		delta.SongsPlayed, delta.SongsLiked, delta.ArtistsFollowed, delta.SongsUploaded, loginID,
	)
	if err != nil {
		return apperr.Internal(fmt.Errorf("error Update user_logins activity by id=%d: %w", loginID, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("no active login")
	}
	return nil
}

func (r *MySQLRepository) CloseLogin(ctx context.Context, loginID int64, at time.Time) (*Login, error) {
	tx, err := r.pool.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("error BeginTxx: %w", err))
	}
	var row Login
	if err := tx.GetContext(
		ctx, &row,
		"SELECT * FROM user_logins WHERE `id` = ? AND `logout_at` IS NULL FOR UPDATE",
		loginID,
	); err != nil {
		tx.Rollback()
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("no open login")
		}
		return nil, apperr.Internal(fmt.Errorf("error Get user_logins by id=%d: %w", loginID, err))
	}
	duration := int64(at.Sub(row.LoginAt) / time.Second)
	if _, err := tx.ExecContext(
		ctx,
		"UPDATE user_logins SET `logout_at` = ?, `session_duration_seconds` = ? WHERE `id` = ?",
		at, duration, loginID,
	); err != nil {
		tx.Rollback()
		return nil, apperr.Internal(fmt.Errorf("error Update user_logins close by id=%d: %w", loginID, err))
	}
	// online-status rule: the null -> non-null logout transition
	// puts the owner offline
	if _, err := tx.ExecContext(
		ctx,
		"UPDATE users SET `is_online` = ? WHERE `account` = ?",
		false, row.UserAccount,
	); err != nil {
		tx.Rollback()
		return nil, apperr.Internal(fmt.Errorf("error Update users offline by account=%s: %w", row.UserAccount, err))
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Commit: %w", err))
	}
	row.LogoutAt = &at
	row.DurationSeconds = &duration
	return &row, nil
}

func (r *MySQLRepository) InactiveLogins(ctx context.Context, olderThan time.Duration, now time.Time) ([]Login, error) {
	cutoff := now.Add(-olderThan)
	var rows []Login
	if err := r.pool.SelectContext(
		ctx, &rows,
		"SELECT * FROM user_logins WHERE `logout_at` IS NULL AND `login_at` < ? ORDER BY `login_at`",
		cutoff,
	); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error Select inactive user_logins: %w", err))
	}
	return rows, nil
}

func (r *MySQLRepository) SweepInactive(ctx context.Context, olderThan time.Duration, now time.Time) (int, error) {
	stale, err := r.InactiveLogins(ctx, olderThan, now)
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, row := range stale {
		if _, err := r.CloseLogin(ctx, row.ID, now); err != nil {
			// a concurrent logout may have closed it first
			if apperr.IsKind(err, apperr.KindNotFound) {
				continue
			}
			return closed, err
		}
		closed++
	}
	return closed, nil
}
