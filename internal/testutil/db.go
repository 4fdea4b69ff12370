package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"ticketnow/internal/database"
	"ticketnow/internal/models"

	"github.com/shopspring/decimal"
)

const testDBLockID int64 = 742019332

// NewTestDB connects to TEST_DATABASE_URL, applies the migrations and
// empties every table. Tests are skipped when no database is configured.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("skipping Postgres integration tests: TEST_DATABASE_URL is not set")
	}

	db, err := database.Open(dsn)
	if err != nil {
		t.Skipf("skipping Postgres integration tests: %v", err)
	}
	db.SetMaxOpenConns(16)
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lockTestDB(t, ctx, db)

	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`TRUNCATE order_items, orders, events, user_roles, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

// InsertUser stores an active user with the given role
func InsertUser(t *testing.T, ctx context.Context, db *database.DB, username string, role models.Role) int64 {
	t.Helper()

	var id int64
	if err := db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, first_name, last_name)
		VALUES ($1, $1 || '@example.com', 'x', 'Test', 'User')
		RETURNING id`, username).Scan(&id); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, id, role); err != nil {
		t.Fatalf("insert role: %v", err)
	}
	return id
}

// InsertEvent stores an approved, active event with the given capacity
func InsertEvent(t *testing.T, ctx context.Context, db *database.DB, promoterID int64, name string, tickets int) int64 {
	t.Helper()

	var id int64
	if err := db.QueryRowContext(ctx, `
		INSERT INTO events (name, description, address, city, state, category, event_date,
		                    ticket_price, ticket_amount, ticket_available, active, approved, promoter_id)
		VALUES ($1, 'test event', 'Av. Paulista, 1000', 'Sao Paulo', 'SP', 'SHOW', $2,
		        $3, $4, $4, TRUE, TRUE, $5)
		RETURNING id`,
		name, time.Now().Add(30*24*time.Hour), decimal.NewFromInt(100), tickets, promoterID,
	).Scan(&id); err != nil {
		t.Fatalf("insert event: %v", err)
	}
	return id
}

func lockTestDB(t *testing.T, ctx context.Context, db *database.DB) {
	t.Helper()

	conn, err := db.DB.Conn(ctx)
	if err != nil {
		t.Fatalf("acquire lock conn: %v", err)
	}
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, testDBLockID); err != nil {
		conn.Close()
		t.Fatalf("acquire test lock: %v", err)
	}

	t.Cleanup(func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, testDBLockID)
		_ = conn.Close()
	})
}
