// Package testutil provides shared database helpers for store-level tests.
package testutil

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/valstore/valstore/db"
)

// SetupTestDB opens a fresh in-memory SQLite database with the full
// schema applied. The handle is closed automatically when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	// Every pool connection to :memory: is a separate empty database;
	// cap the pool at one so concurrent readers see the migrated schema.
	database.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(database, nil))
	return database
}
