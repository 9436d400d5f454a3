// Package testutil provides the shared PostgreSQL fixture for DB-backed
// tests. Tests skip when TEST_DB_HOST is not set.
package testutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/spikeapp/spike-server/internal/config"
	"github.com/spikeapp/spike-server/internal/db"
)

func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "spike",
		Password: "spike_pass",
		DBName:   "spike_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	if _, err := conn.Exec("TRUNCATE users, password_reset_tokens, email_verification_codes CASCADE"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
	}
}
