package database

import (
	"context"
	"fmt"
	"log/slog"
)

const migrationLockID int64 = 742019331

type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{"001_users", createUsersTable},
	{"002_user_roles", createUserRolesTable},
	{"003_events", createEventsTable},
	{"004_orders", createOrdersTable},
	{"005_order_items", createOrderItemsTable},
	{"006_indexes", createIndexes},
}

// RunMigrations applies pending migrations in order under an advisory lock so
// that several API replicas can start at the same time.
func (db *DB) RunMigrations(ctx context.Context) error {
	slog.Info("Running database migrations...")

	c, err := db.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire migration conn: %w", err)
	}
	defer c.Close()

	if _, err := c.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, migrationLockID); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = c.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, migrationLockID)
	}()

	if _, err := c.ExecContext(ctx, createSchemaMigrationsTable); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var applied bool
		if err := c.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, m.name,
		).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", m.name, err)
		}
		if applied {
			continue
		}

		slog.Info("Running migration", "name", m.name)
		if _, err := c.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
		if _, err := c.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, m.name); err != nil {
			return fmt.Errorf("record migration %s: %w", m.name, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createSchemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    name TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    username VARCHAR(100) NOT NULL UNIQUE,
    email VARCHAR(255) NOT NULL,
    password_hash VARCHAR(100) NOT NULL,
    first_name VARCHAR(100) NOT NULL,
    last_name VARCHAR(100) NOT NULL,
    document VARCHAR(20) NOT NULL DEFAULT '',
    document_type VARCHAR(10) NOT NULL DEFAULT '',
    active BOOLEAN NOT NULL DEFAULT TRUE,
    refresh_token_hash VARCHAR(64),
    refresh_token_expires_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createUserRolesTable = `
CREATE TABLE IF NOT EXISTS user_roles (
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    role VARCHAR(20) NOT NULL,
    PRIMARY KEY (user_id, role),
    CHECK (role IN ('ADMIN', 'CUSTOMER', 'PROMOTER'))
);`

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    description TEXT NOT NULL,
    address VARCHAR(200) NOT NULL,
    city VARCHAR(100) NOT NULL,
    state CHAR(2) NOT NULL,
    category VARCHAR(20) NOT NULL,
    event_date TIMESTAMPTZ NOT NULL,
    ticket_price NUMERIC(12,2) NOT NULL,
    ticket_amount INTEGER NOT NULL,
    ticket_available INTEGER NOT NULL,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    approved BOOLEAN NOT NULL DEFAULT FALSE,
    promoter_id BIGINT NOT NULL REFERENCES users(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (ticket_amount > 0),
    CHECK (ticket_available >= 0 AND ticket_available <= ticket_amount),
    CHECK (category IN ('SHOW', 'THEATER', 'SPORTS', 'FESTIVAL', 'STANDUP', 'OTHER'))
);`

const createOrdersTable = `
CREATE TABLE IF NOT EXISTS orders (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE RESTRICT,
    payment_id BIGINT,
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    payment_status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    payment_method VARCHAR(20) NOT NULL,
    tickets INTEGER NOT NULL,
    price NUMERIC(12,2) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (tickets > 0),
    CHECK (status IN ('PENDING', 'CONFIRMED', 'CANCELLED')),
    CHECK (payment_status IN ('PENDING', 'PROCESSING', 'PAID', 'FAILED', 'DECLINED', 'CANCELLED')),
    CHECK (payment_method IN ('CREDIT_CARD', 'DEBIT_CARD', 'PIX', 'BANK_SLIP'))
);`

const createOrderItemsTable = `
CREATE TABLE IF NOT EXISTS order_items (
    id BIGSERIAL PRIMARY KEY,
    order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    ticket_code UUID NOT NULL UNIQUE,
    unit_price NUMERIC(12,2) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createIndexes = `
CREATE INDEX IF NOT EXISTS events_created_at_idx ON events (created_at DESC);
CREATE INDEX IF NOT EXISTS events_promoter_id_idx ON events (promoter_id);
CREATE INDEX IF NOT EXISTS orders_user_id_idx ON orders (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS orders_event_id_idx ON orders (event_id);
CREATE INDEX IF NOT EXISTS orders_pending_idx ON orders (created_at) WHERE status = 'PENDING';
CREATE INDEX IF NOT EXISTS order_items_order_id_idx ON order_items (order_id);`
