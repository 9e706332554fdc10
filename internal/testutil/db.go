package testutil

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/zerobertocosta/Karibu/internal/database"
)

// schema mirrors db/migrations/sql/0001_init.sql in the subset SQLite
// understands, enough to run the repositories against a real engine.
var schema = []string{
	`CREATE TABLE tables (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		establishment_id INTEGER NOT NULL,
		number TEXT NOT NULL,
		capacity INTEGER NOT NULL,
		status TEXT NOT NULL,
		description TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP,
		UNIQUE (establishment_id, number)
	)`,
	`CREATE TABLE orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		establishment_id INTEGER NOT NULL,
		table_id INTEGER REFERENCES tables (id),
		status TEXT NOT NULL,
		total_cents INTEGER NOT NULL DEFAULT 0,
		tip_cents INTEGER,
		closing_notes TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE TABLE tickets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		establishment_id INTEGER NOT NULL,
		order_id INTEGER NOT NULL REFERENCES orders (id),
		status TEXT NOT NULL,
		kitchen_notes TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE TABLE order_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		establishment_id INTEGER NOT NULL,
		order_id INTEGER NOT NULL REFERENCES orders (id),
		menu_item_id INTEGER NOT NULL,
		menu_item_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price_cents INTEGER NOT NULL,
		subtotal_cents INTEGER NOT NULL,
		ticket_id INTEGER REFERENCES tickets (id),
		notes TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE waiter_calls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		establishment_id INTEGER NOT NULL,
		table_id INTEGER NOT NULL REFERENCES tables (id),
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		resolved_at TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX uq_waiter_calls_pending_table
		ON waiter_calls (table_id) WHERE status = 'pending'`,
}

// NewDB opens a private in-memory database with the service schema applied.
// The single connection holds the database alive for the test's lifetime.
func NewDB(t *testing.T) *database.Connections {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range schema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	return &database.Connections{Writer: db, Reader: db}
}
