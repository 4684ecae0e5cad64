// Package distlock serializes one-time work across processes sharing a
// PostgreSQL database.
package distlock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
)

// =============================================================================
// PostgreSQL Advisory Lock
// =============================================================================
// pg_advisory_lock is session-scoped, so the lock pins one pooled connection
// from Acquire until Release. If that connection drops the server releases
// the lock.

// PGAdvisoryLock is a blocking advisory lock keyed by a string.
type PGAdvisoryLock struct {
	db     *sql.DB
	lockID int64
	conn   *sql.Conn
}

// NewPGAdvisoryLock creates a PG advisory lock with a deterministic lock ID
// derived from the given key string.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{
		db:     db,
		lockID: int64(h.Sum64()),
	}
}

// Acquire blocks until the lock is held or ctx is done.
func (l *PGAdvisoryLock) Acquire(ctx context.Context) error {
	if l.conn != nil {
		return errors.New("distlock: already held")
	}
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("distlock: reserve connection: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", l.lockID); err != nil {
		conn.Close()
		return fmt.Errorf("distlock: acquire: %w", err)
	}
	l.conn = conn
	return nil
}

// Release unlocks and returns the pinned connection to the pool.
func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	_, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
	closeErr := l.conn.Close()
	l.conn = nil
	if err != nil {
		return fmt.Errorf("distlock: release: %w", err)
	}
	return closeErr
}

// With runs fn while holding l.
func (l *PGAdvisoryLock) With(ctx context.Context, fn func() error) (err error) {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer func() {
		// Release on a fresh context so a canceled ctx still unlocks.
		if relErr := l.Release(context.Background()); err == nil {
			err = relErr
		}
	}()
	return fn()
}
