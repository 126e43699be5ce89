// Package dbtest sets up live backing services for integration tests.
package dbtest

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/mediocregopher/radix/v4"

	"github.com/XaviFP/manabi/common/config"
	"github.com/XaviFP/manabi/common/db"
)

// Postgres connects to the database named by the DB_* variables and resets
// its schema from the migrations at sourceURL. The test is skipped when
// DB_HOST is not set.
func Postgres(t *testing.T, sourceURL string) *sql.DB {
	t.Helper()

	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST not set")
	}

	database, err := db.InitDB(config.LoadDBConfig())
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	if err := db.Migrate(database, sourceURL, true); err != nil {
		t.Fatal(err)
	}

	if err := db.Migrate(database, sourceURL, false); err != nil {
		t.Fatal(err)
	}

	return database
}

// Redis connects to the server named by the CACHE_* variables and flushes it.
// The test is skipped when CACHE_HOST is not set.
func Redis(t *testing.T) radix.Client {
	t.Helper()

	if os.Getenv("CACHE_HOST") == "" {
		t.Skip("CACHE_HOST not set")
	}

	ctx := context.Background()
	c := config.LoadCacheConfig()

	client, err := (radix.PoolConfig{}).New(ctx, c.TransportProtocol, c.Host+":"+c.Port)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
	})

	if err := client.Do(ctx, radix.Cmd(nil, "FLUSHDB")); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}

	return client
}
