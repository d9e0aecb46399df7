package user

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/apperr"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/db"
)

// Repository is the user profile store.
type Repository interface {
	// Create inserts the user and, for Artist-typed users, the
	// artist extension row in the same transaction. A duplicate
	// account is a validation error.
	Create(ctx context.Context, u *User, artistBio string) error

	// GetByAccount looks the account up case-sensitively.
	GetByAccount(ctx context.Context, account string) (*User, error)

	// GetByAccountFold is the case-insensitive fallback lookup used
	// by the individual analytics report.
	GetByAccountFold(ctx context.Context, account string) (*User, error)

	// GetArtist returns the artist extension row.
	GetArtist(ctx context.Context, account string) (*ArtistProfile, error)

	// SetStatus bans, suspends or reactivates an account.
	SetStatus(ctx context.Context, account string, status AccountStatus) error

	// SetOnline flips the online flag; when online it also stamps
	// last_login_at. Invoked only by the login ledger.
	SetOnline(ctx context.Context, account string, online bool, at time.Time) error
}

// MySQLRepository implements Repository on the users/artists tables.
type MySQLRepository struct {
	pool *sqlx.DB
}

func NewMySQLRepository(pool *sqlx.DB) *MySQLRepository {
	return &MySQLRepository{pool: pool}
}

func (r *MySQLRepository) Create(ctx context.Context, u *User, artistBio string) error {
	tx, err := r.pool.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Internal(fmt.Errorf("error BeginTxx: %w", err))
	}
	if _, err := tx.ExecContext(
		ctx,
		"INSERT INTO users (`account`, `password_hash`, `display_name`, `email`, `date_of_birth`, `country`, `city`, `user_type`, `account_status`, `is_online`, `created_at`, `last_login_at`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		u.Account, u.PasswordHash, u.DisplayName, u.Email, u.DateOfBirth, u.Country, u.City, u.UserType, u.Status, u.IsOnline, u.CreatedAt, u.LastLoginAt,
	); err != nil {
		tx.Rollback()
		if db.IsDuplicateEntry(err) {
			return apperr.Validation("account already exists")
		}
		return apperr.Internal(fmt.Errorf("error Insert users by account=%s: %w", u.Account, err))
	}
	if u.UserType == TypeArtist {
		if _, err := tx.ExecContext(
			ctx,
			"INSERT INTO artists (`user_account`, `bio`, `is_verified`) VALUES (?, ?, ?)",
			u.Account, artistBio, false,
		); err != nil {
			tx.Rollback()
			return apperr.Internal(fmt.Errorf("error Insert artists by user_account=%s: %w", u.Account, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal(fmt.Errorf("error Commit: %w", err))
	}
	return nil
}

func (r *MySQLRepository) GetByAccount(ctx context.Context, account string) (*User, error) {
	var u User
	// BINARY forces a case-sensitive match on the usual ci collation
	if err := r.pool.GetContext(
		ctx, &u,
		"SELECT * FROM users WHERE BINARY `account` = ?",
		account,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(fmt.Errorf("error Get users by account=%s: %w", account, err))
	}
	return &u, nil
}

func (r *MySQLRepository) GetByAccountFold(ctx context.Context, account string) (*User, error) {
	var u User
	if err := r.pool.GetContext(
		ctx, &u,
		"SELECT * FROM users WHERE LOWER(`account`) = LOWER(?) LIMIT 1",
		account,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(fmt.Errorf("error Get users by folded account=%s: %w", account, err))
	}
	return &u, nil
}

func (r *MySQLRepository) GetArtist(ctx context.Context, account string) (*ArtistProfile, error) {
	var a ArtistProfile
	if err := r.pool.GetContext(
		ctx, &a,
		"SELECT * FROM artists WHERE `user_account` = ?",
		account,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("artist not found")
		}
		return nil, apperr.Internal(fmt.Errorf("error Get artists by user_account=%s: %w", account, err))
	}
	return &a, nil
}

func (r *MySQLRepository) SetStatus(ctx context.Context, account string, status AccountStatus) error {
	res, err := r.pool.ExecContext(
		ctx,
		"UPDATE users SET `account_status` = ? WHERE `account` = ?",
		status, account,
	)
	if err != nil {
		return apperr.Internal(fmt.Errorf("error Update users status by account=%s: %w", account, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByAccount(ctx, account); err != nil {
			return err
		}
	}
	return nil
}

func (r *MySQLRepository) SetOnline(ctx context.Context, account string, online bool, at time.Time) error {
	var err error
	if online {
		_, err = r.pool.ExecContext(
			ctx,
			"UPDATE users SET `is_online` = ?, `last_login_at` = ? WHERE `account` = ?",
			true, at, account,
		)
	} else {
		_, err = r.pool.ExecContext(
			ctx,
			"UPDATE users SET `is_online` = ? WHERE `account` = ?",
			false, account,
		)
	}
	if err != nil {
		return apperr.Internal(fmt.Errorf("error Update users online by account=%s: %w", account, err))
	}
	return nil
}
