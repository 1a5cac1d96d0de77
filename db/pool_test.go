package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// newMockDB builds the bun handle before any expectation is registered so the
// dialect's version probe fails quietly instead of consuming one.
func newMockDB(t *testing.T, opts ...sqlmock.SqlMockOption) (*bun.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New(opts...)
	require.NoError(t, err)
	bdb := Wrap(sqldb, false)
	t.Cleanup(func() { _ = bdb.Close() })
	return bdb, mock
}

// hold occupies one pool slot until the returned func is called.
func hold(t *testing.T, p *Pool) func() {
	t.Helper()
	entered := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = p.Run(context.Background(), func(context.Context, bun.IDB) error {
			close(entered)
			<-done
			return nil
		})
	}()
	<-entered
	return func() { close(done) }
}

func noop(context.Context, bun.IDB) error { return nil }

func TestPoolFailsFastWithoutWait(t *testing.T) {
	bdb, _ := newMockDB(t)
	p := NewPool(bdb, PoolOptions{Limit: 1, Wait: false})

	release := hold(t, p)
	err := p.Run(context.Background(), noop)
	assert.ErrorIs(t, err, ErrNoConnections)
	assert.Equal(t, "No connections available.", err.Error())

	release()
	assert.Eventually(t, func() bool {
		return p.Run(context.Background(), noop) == nil
	}, time.Second, 5*time.Millisecond)
}

func TestPoolQueueLimit(t *testing.T) {
	bdb, _ := newMockDB(t)
	p := NewPool(bdb, PoolOptions{Limit: 1, Wait: true, QueueLimit: 1})

	release := hold(t, p)

	queued := make(chan error, 1)
	go func() { queued <- p.Run(context.Background(), noop) }()
	require.Eventually(t, func() bool { return p.Waiting() == 1 }, time.Second, time.Millisecond)

	err := p.Run(context.Background(), noop)
	assert.ErrorIs(t, err, ErrQueueLimit)
	assert.Equal(t, "Queue limit reached.", err.Error())

	release()
	select {
	case err := <-queued:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("queued caller never ran")
	}
	assert.Equal(t, 0, p.Waiting())
}

func TestPoolUnboundedQueue(t *testing.T) {
	bdb, _ := newMockDB(t)
	p := NewPool(bdb, PoolOptions{Limit: 2, Wait: true})

	release := hold(t, p)
	release2 := hold(t, p)

	const callers = 20
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() { results <- p.Run(context.Background(), noop) }()
	}
	require.Eventually(t, func() bool { return p.Waiting() == callers }, time.Second, time.Millisecond)

	release()
	release2()
	for i := 0; i < callers; i++ {
		assert.NoError(t, <-results)
	}
}

func TestPoolRunPropagatesError(t *testing.T) {
	bdb, _ := newMockDB(t)
	p := NewPool(bdb, PoolOptions{Limit: 1, Wait: true})

	boom := errors.New("boom")
	assert.ErrorIs(t, p.Run(context.Background(), func(context.Context, bun.IDB) error { return boom }), boom)
	// the slot was released
	assert.NoError(t, p.Run(context.Background(), noop))
}

func TestPoolExec(t *testing.T) {
	bdb, mock := newMockDB(t)
	p := NewPool(bdb, PoolOptions{Limit: 1, Wait: true})

	mock.ExpectExec(`CALL delete_owner_and_related\('owner1'\)`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	res, err := p.Exec(context.Background(), "CALL delete_owner_and_related(?)", "owner1")
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolPing(t *testing.T) {
	bdb, mock := newMockDB(t, sqlmock.MonitorPingsOption(true))
	p := NewPool(bdb, PoolOptions{Limit: 1, Wait: true})

	mock.ExpectPing()
	assert.NoError(t, p.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.EqualError(t, p.Ping(context.Background()), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMissingProcedures(t *testing.T) {
	bdb, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT ROUTINE_NAME FROM information_schema.ROUTINES WHERE \(ROUTINE_SCHEMA = DATABASE\(\)\) AND \(ROUTINE_TYPE = 'PROCEDURE'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"ROUTINE_NAME"}).
			AddRow("add_race").
			AddRow("GET_TRACK_STATS"))

	missing, err := MissingProcedures(context.Background(), bdb, []string{"add_race", "get_track_stats", "approve_trainer"})
	require.NoError(t, err)
	assert.Equal(t, []string{"approve_trainer"}, missing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMissingProceduresQueryError(t *testing.T) {
	bdb, mock := newMockDB(t)
	mock.ExpectQuery(`information_schema.ROUTINES`).WillReturnError(errors.New("access denied"))

	_, err := MissingProcedures(context.Background(), bdb, []string{"add_race"})
	assert.ErrorContains(t, err, "list procedures: access denied")
}
