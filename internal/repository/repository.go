// Package repository is the sqlx/MySQL adapter for every table the server touches.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/hash-not-analog/isuconquest/internal/config"
)

// Queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type Queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Rebind(query string) string
}

// Repository runs queries on a pool or inside a transaction.
type Repository struct {
	q Queryer
}

func New(q Queryer) *Repository {
	return &Repository{q: q}
}

// IsNoRows reports whether err came from a lookup that matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// DB owns the pool and opens transactions.
type DB struct {
	db *sqlx.DB
}

func NewDB(db *sqlx.DB) *DB {
	return &DB{db: db}
}

// Repository returns a repository running outside any transaction.
func (d *DB) Repository() *Repository {
	return New(d.db)
}

// Transaction runs fn in one transaction. fn's error, or a panic, rolls it back.
func (d *DB) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(New(tx)); err != nil {
		return err
	}

	return errors.WithStack(tx.Commit())
}

// Connect opens the MySQL pool.
func Connect(cfg config.DBConfig, batch bool) (*sqlx.DB, error) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		loc = time.FixedZone("Asia/Tokyo", 9*60*60)
	}

	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = loc
	mc.MultiStatements = batch
	mc.InterpolateParams = true
	mc.Params = map[string]string{"charset": "utf8mb4"}

	dbx, err := sqlx.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	dbx.SetMaxOpenConns(cfg.MaxOpenConns)
	dbx.SetMaxIdleConns(cfg.MaxIdleConns)
	// 接続してから再利用できる最大期間
	dbx.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	// アイドル接続してから再利用できる最大期間
	dbx.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return dbx, nil
}
