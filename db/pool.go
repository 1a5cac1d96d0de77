package db

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"

	"github.com/uptrace/bun"
	"golang.org/x/sync/semaphore"

	"github.com/padraicbc/racingdb/metrics"
)

var (
	// ErrNoConnections is returned when every connection is busy and the pool
	// is configured not to wait.
	ErrNoConnections = errors.New("No connections available.")
	// ErrQueueLimit is returned when the wait queue is full.
	ErrQueueLimit = errors.New("Queue limit reached.")
)

// PoolOptions is the admission policy for a Pool.
type PoolOptions struct {
	// Limit caps concurrent statements. It should match SetMaxOpenConns.
	Limit int
	// Wait queues callers when every connection is busy instead of failing.
	Wait bool
	// QueueLimit bounds the wait queue; 0 is unbounded.
	QueueLimit int
}

// Pool admits at most Limit concurrent statements onto a bun.DB. It is safe
// for concurrent use.
type Pool struct {
	db         *bun.DB
	sem        *semaphore.Weighted
	wait       bool
	queueLimit int64
	waiting    atomic.Int64
}

// NewPool wraps db with the given admission policy.
func NewPool(db *bun.DB, opts PoolOptions) *Pool {
	if opts.Limit < 1 {
		opts.Limit = 1
	}
	return &Pool{
		db:         db,
		sem:        semaphore.NewWeighted(int64(opts.Limit)),
		wait:       opts.Wait,
		queueLimit: int64(opts.QueueLimit),
	}
}

// DB returns the underlying handle.
func (p *Pool) DB() *bun.DB {
	return p.db
}

// Waiting reports how many callers are queued for a connection.
func (p *Pool) Waiting() int {
	return int(p.waiting.Load())
}

func (p *Pool) acquire(ctx context.Context) (func(), error) {
	release := func() { p.sem.Release(1) }
	if p.sem.TryAcquire(1) {
		return release, nil
	}
	if !p.wait {
		metrics.PoolRejected("no_connections")
		return nil, ErrNoConnections
	}

	n := p.waiting.Add(1)
	defer p.waiting.Add(-1)
	if p.queueLimit > 0 && n > p.queueLimit {
		metrics.PoolRejected("queue_limit")
		return nil, ErrQueueLimit
	}

	metrics.PoolWaiting(1)
	defer metrics.PoolWaiting(-1)
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return release, nil
}

// Run holds one admission slot for the duration of fn. Anything fn reads
// from the database must be consumed before it returns.
func (p *Pool) Run(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	release, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, p.db)
}

// Exec runs a statement that returns no rows.
func (p *Pool) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := p.Run(ctx, func(ctx context.Context, db bun.IDB) error {
		var err error
		res, err = db.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// Ping checks the server is reachable through the pool.
func (p *Pool) Ping(ctx context.Context) error {
	return p.Run(ctx, func(ctx context.Context, _ bun.IDB) error {
		return p.db.PingContext(ctx)
	})
}

// Close closes the underlying handle.
func (p *Pool) Close() error {
	return p.db.Close()
}
