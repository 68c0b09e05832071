package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/saree-booking/internal/api"
	"github.com/hackgods/saree-booking/internal/appointment"
	"github.com/hackgods/saree-booking/internal/config"
	"github.com/hackgods/saree-booking/internal/db"
	redisclient "github.com/hackgods/saree-booking/internal/redis"
)

// Deps holds the connections and domain objects selected by configuration.
type Deps struct {
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Store    *appointment.Store
	Locker   appointment.Locker
	Bookings *appointment.BookingService
	Catalog  *appointment.Catalog
}

// Open connects whatever the configuration needs and wires the store, the
// slot locker and the services on top of it.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Deps, error) {
	d := &Deps{}

	if cfg.NeedsPostgres() {
		pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolConfig{MaxConns: int32(cfg.DBMaxConns)})
		cancel()
		if err != nil {
			return nil, fmt.Errorf("postgres connection: %w", err)
		}
		d.PgPool = pool
		logger.Info("connected to Postgres")

		if cfg.StoreBackend == config.BackendPostgres {
			if err := db.Migrate(ctx, pool); err != nil {
				d.Close(logger)
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
	}

	if cfg.NeedsRedis() {
		rdb, err := redisclient.NewRedisClient(ctx, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			d.Close(logger)
			return nil, fmt.Errorf("redis connection: %w", err)
		}
		d.Redis = rdb
		logger.Info("connected to Redis")
	}

	repo, err := d.repository(cfg)
	if err != nil {
		d.Close(logger)
		return nil, err
	}

	switch cfg.LockBackend {
	case config.LockPostgres:
		d.Locker = appointment.NewPgAdvisoryLocker(d.PgPool, cfg.LockWait)
	case config.LockRedis:
		d.Locker = redisclient.NewRedisSlotLocker(d.Redis, cfg.LockTTL, cfg.LockWait)
	default:
		d.Locker = appointment.NewLocalLocker(cfg.LockWait)
	}

	d.Store = appointment.NewStore(repo, logger)
	d.Bookings = appointment.NewBookingService(d.Store, d.Locker, logger)
	d.Catalog = appointment.NewCatalog(d.Store, logger)

	logger.Info("store ready",
		slog.String("store_backend", cfg.StoreBackend),
		slog.String("lock_backend", cfg.LockBackend),
	)
	return d, nil
}

func (d *Deps) repository(cfg config.Config) (appointment.Repository, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		return appointment.NewPgRepository(d.PgPool), nil
	case config.BackendRedis:
		return appointment.NewBlobRepository(redisclient.NewBlobs(d.Redis, cfg.RedisKeyPrefix)), nil
	case config.BackendFile:
		blobs, err := appointment.NewFileBlobs(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return appointment.NewBlobRepository(blobs), nil
	case config.BackendMemory:
		return appointment.NewBlobRepository(appointment.NewMemoryBlobs()), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// HealthChecks lists readiness probes for every connected dependency.
func (d *Deps) HealthChecks() []api.HealthCheck {
	checks := []api.HealthCheck{
		{Name: "store", Critical: true, Check: d.Store.Ping},
	}
	if d.PgPool != nil {
		checks = append(checks, api.HealthCheck{Name: "postgres", Critical: true, Check: d.PgPool.Ping})
	}
	if d.Redis != nil {
		checks = append(checks, api.HealthCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return d.Redis.Ping(ctx).Err()
			},
		})
	}
	return checks
}

func (d *Deps) Close(logger *slog.Logger) {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			logger.Warn("error closing redis", slog.Any("err", err))
		}
	}
	if d.PgPool != nil {
		d.PgPool.Close()
	}
}
