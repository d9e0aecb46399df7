// Package db opens the MySQL connection pool and defines the handle
// interface shared by all repositories.
package db

import (
	"context"
	"database/sql"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/config"
)

// ConnOrTx lets query helpers run against either a connection or a
// transaction.
type ConnOrTx interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Connect opens the pool from config.
func Connect(cfg *config.Config) (*sqlx.DB, error) {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = cfg.DBHost + ":" + cfg.DBPort
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.DBName = cfg.DBName
	mc.ParseTime = true

	pool, err := sqlx.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(10)
	return pool, nil
}

// IsDuplicateEntry reports whether err is a MySQL duplicate-key error.
func IsDuplicateEntry(err error) bool {
	merr, ok := err.(*mysql.MySQLError)
	return ok && merr.Number == 1062
}
