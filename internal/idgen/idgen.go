// Package idgen allocates the unique ids of every row the server inserts.
package idgen

import (
	"context"
	"sync/atomic"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Generator hands out ids that are never returned twice.
type Generator interface {
	NextID(ctx context.Context) (int64, error)
}

const (
	errLockDeadlock    = 1213
	errLockWaitTimeout = 1205

	DefaultMaxAttempts = 100
)

// Counter increments the single id_generator row. It runs on its own pool so an
// allocation never joins the caller's transaction.
type Counter struct {
	db          *sqlx.DB
	maxAttempts int

	// OnRetry is called before every retried attempt.
	OnRetry func()
}

func NewCounter(db *sqlx.DB, maxAttempts int) *Counter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Counter{db: db, maxAttempts: maxAttempts}
}

// NextID uniqueなIDを生成する
func (c *Counter) NextID(ctx context.Context) (int64, error) {
	var lastErr error
	for i := 0; i < c.maxAttempts; i++ {
		if i > 0 && c.OnRetry != nil {
			c.OnRetry()
		}

		res, err := c.db.ExecContext(ctx, "UPDATE id_generator SET id=LAST_INSERT_ID(id+1)")
		if err != nil {
			if isRetryable(err) {
				lastErr = err
				continue
			}
			return 0, errors.WithStack(err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return 0, errors.WithStack(err)
		}
		return id, nil
	}

	return 0, errors.Wrapf(lastErr, "failed to generate id after %d attempts", c.maxAttempts)
}

func isRetryable(err error) bool {
	var merr *mysql.MySQLError
	if !errors.As(err, &merr) {
		return false
	}
	return merr.Number == errLockDeadlock || merr.Number == errLockWaitTimeout
}

// Sequence is an in-process Generator for tests and tools without a database.
type Sequence struct {
	n atomic.Int64
}

func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.n.Store(start)
	return s
}

func (s *Sequence) NextID(context.Context) (int64, error) {
	return s.n.Add(1), nil
}
