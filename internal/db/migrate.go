package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS services (
		position    BIGINT GENERATED ALWAYS AS IDENTITY,
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT,
		image       TEXT,
		price_range TEXT,
		status      TEXT NOT NULL DEFAULT 'Active'
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id               TEXT PRIMARY KEY,
		service_id       TEXT NOT NULL,
		customer_name    TEXT NOT NULL,
		phone            TEXT NOT NULL,
		appointment_date TEXT NOT NULL,
		appointment_time TEXT NOT NULL,
		notes            TEXT,
		admin_notes      TEXT,
		status           TEXT NOT NULL DEFAULT 'Booked',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`ALTER TABLE appointments ADD COLUMN IF NOT EXISTS saree_image TEXT`,
	`ALTER TABLE appointments ADD COLUMN IF NOT EXISTS fabric_type TEXT`,
	`ALTER TABLE appointments ADD COLUMN IF NOT EXISTS pleating_type TEXT`,
	`ALTER TABLE appointments ADD COLUMN IF NOT EXISTS waist_size TEXT`,
	`ALTER TABLE appointments ADD COLUMN IF NOT EXISTS pickup_method TEXT`,
	`CREATE INDEX IF NOT EXISTS appointments_slot_idx
		ON appointments (service_id, appointment_date, appointment_time)`,
	`CREATE INDEX IF NOT EXISTS appointments_created_at_idx
		ON appointments (created_at DESC)`,
}

// Migrate brings the schema up to date. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, stmt := range migrations {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}
