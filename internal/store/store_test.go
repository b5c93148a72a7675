// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"designforge/internal/database"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "designforge")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "designforge")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanDesigns removes test designs by slug prefix. Call in t.Cleanup().
func cleanDesigns(t *testing.T, db *sql.DB, prefixes ...string) {
	t.Helper()
	for _, prefix := range prefixes {
		db.Exec("DELETE FROM designs WHERE slug LIKE $1", prefix+"%")
	}
}

// cleanRequests removes test requests by ID. Call in t.Cleanup().
func cleanRequests(t *testing.T, db *sql.DB, ids ...uuid.UUID) {
	t.Helper()
	for _, id := range ids {
		db.Exec("DELETE FROM design_requests WHERE id = $1", id)
	}
}

// insertRequest adds a pending request with the given title and vote count
// and registers its cleanup. Vote counts in tests stay far above the seed
// data so claims only ever see the rows a test created.
func insertRequest(t *testing.T, db *sql.DB, title string, votes int) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := db.QueryRowContext(context.Background(), `
		INSERT INTO design_requests (title, description, category, vote_count)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, title, "test request", "Dashboard", votes).Scan(&id)
	if err != nil {
		t.Fatalf("insert request %q: %v", title, err)
	}
	t.Cleanup(func() { cleanRequests(t, db, id) })
	return id
}
