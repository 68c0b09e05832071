package redisclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hackgods/saree-booking/internal/appointment"
)

const maxTxRetries = 10

// Blobs is an appointment.BlobStore keeping each collection under
// <prefix><key>. Updates use WATCH/MULTI so concurrent writers from several
// processes never lose each other's changes.
type Blobs struct {
	client *redis.Client
	prefix string
}

var _ appointment.BlobStore = (*Blobs)(nil)

func NewBlobs(client *redis.Client, prefix string) *Blobs {
	return &Blobs{client: client, prefix: prefix}
}

func (b *Blobs) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, b.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", appointment.ErrBackendUnavailable, key, err)
	}
	return data, nil
}

func (b *Blobs) Update(ctx context.Context, key string, fn func([]byte) ([]byte, error)) error {
	full := b.prefix + key

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, full).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		next, err := fn(current)
		if err != nil || next == nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, full, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := b.client.Watch(ctx, txf, full)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("%w: update %s: too much contention", appointment.ErrBackendUnavailable, key)
}

func (b *Blobs) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", appointment.ErrBackendUnavailable, err)
	}
	return nil
}
