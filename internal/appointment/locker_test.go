package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_SerializesSameKey(t *testing.T) {
	locker := NewLocalLocker(time.Second)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithSlotLock(ctx, "srv|2025-06-01|10:00 AM", func(context.Context) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, locker.slots, "released keys must not leak")
}

func TestLocalLocker_BusyAfterWait(t *testing.T) {
	locker := NewLocalLocker(20 * time.Millisecond)
	ctx := context.Background()
	key := SlotKey("srv-fold-01", "2025-06-01", "10:00 AM")

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- locker.WithSlotLock(ctx, key, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	err := locker.WithSlotLock(ctx, key, func(context.Context) error {
		t.Fatal("must not run while the slot is held")
		return nil
	})
	assert.ErrorIs(t, err, ErrSlotBusy)
	assert.ErrorIs(t, err, ErrSlotConflict)

	// Other slots are independent.
	require.NoError(t, locker.WithSlotLock(ctx, SlotKey("srv-fold-01", "2025-06-01", "11:00 AM"), func(context.Context) error {
		return nil
	}))

	close(release)
	require.NoError(t, <-done)
}

func TestLocalLocker_CallerDeadlineIsNotBusy(t *testing.T) {
	locker := NewLocalLocker(0)
	key := SlotKey("srv-fold-01", "2025-06-01", "10:00 AM")

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- locker.WithSlotLock(context.Background(), key, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := locker.WithSlotLock(ctx, key, func(context.Context) error {
		t.Fatal("must not run while the slot is held")
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrSlotConflict)

	close(release)
	require.NoError(t, <-done)
}

func TestLocalLocker_ReturnsFnError(t *testing.T) {
	locker := NewLocalLocker(0)
	boom := errors.New("boom")

	err := locker.WithSlotLock(context.Background(), "k", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestSlotKey(t *testing.T) {
	assert.Equal(t, "srv-fold-01|2025-06-01|10:00 AM", SlotKey("srv-fold-01", "2025-06-01", "10:00 AM"))
}
