package appointment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Locker guards the read-check-write of a booking so two requests for the
// same slot cannot both pass the conflict check.
type Locker interface {
	WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// SlotKey is the unit of exclusivity: one service, one date, one time label.
func SlotKey(serviceID, date, timeLabel string) string {
	return serviceID + "|" + date + "|" + timeLabel
}

type slotMutex struct {
	ch   chan struct{}
	refs int
}

// LocalLocker serializes slots inside one process.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slotMutex
	wait  time.Duration
}

// NewLocalLocker returns a locker that reports ErrSlotBusy after wait. A
// zero wait means only the caller's context bounds the wait; a cancelled or
// expired caller context is returned as a lock failure, never as busy.
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slotMutex), wait: wait}
}

func (l *LocalLocker) acquire(key string) *slotMutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.slots[key]
	if !ok {
		m = &slotMutex{ch: make(chan struct{}, 1)}
		l.slots[key] = m
	}
	m.refs++
	return m
}

func (l *LocalLocker) release(key string, m *slotMutex) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m.refs--
	if m.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *LocalLocker) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	m := l.acquire(key)
	defer l.release(key, m)

	waitCtx := ctx
	if l.wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	select {
	case m.ch <- struct{}{}:
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return fmt.Errorf("acquire slot lock: %w", ctx.Err())
		}
		return fmt.Errorf("%w: %s", ErrSlotBusy, key)
	}
	defer func() { <-m.ch }()

	return fn(ctx)
}

// PgAdvisoryLocker holds a Postgres session advisory lock on a dedicated
// pooled connection for the duration of fn. It serializes a slot across
// every API process sharing the database.
type PgAdvisoryLocker struct {
	pool *pgxpool.Pool
	wait time.Duration
	poll time.Duration
}

func NewPgAdvisoryLocker(pool *pgxpool.Pool, wait time.Duration) *PgAdvisoryLocker {
	if wait <= 0 {
		wait = 3 * time.Second
	}
	return &PgAdvisoryLocker{pool: pool, wait: wait, poll: 25 * time.Millisecond}
}

func (l *PgAdvisoryLocker) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire lock connection: %w", classifyPgError(err))
	}
	defer conn.Release()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		var ok bool
		err := conn.QueryRow(waitCtx, `SELECT pg_try_advisory_lock(hashtext($1))`, key).Scan(&ok)
		if err != nil {
			if waitCtx.Err() != nil && ctx.Err() == nil {
				return fmt.Errorf("%w: %s", ErrSlotBusy, key)
			}
			return fmt.Errorf("acquire slot lock: %w", classifyPgError(err))
		}
		if ok {
			break
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return fmt.Errorf("acquire slot lock: %w", ctx.Err())
			}
			return fmt.Errorf("%w: %s", ErrSlotBusy, key)
		case <-ticker.C:
		}
	}

	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(unlockCtx, `SELECT pg_advisory_unlock(hashtext($1))`, key); err != nil {
			// Closing the session drops any advisory locks it still holds.
			_ = conn.Conn().Close(unlockCtx)
		}
	}()

	return fn(ctx)
}
