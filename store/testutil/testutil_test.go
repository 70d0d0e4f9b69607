package testutil_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/valstore/valstore/store/testutil"
)

// The summary builder fans out concurrent reads over one handle; every
// connection the pool hands out must see the migrated schema.
func TestSetupTestDBSchemaVisibleToConcurrentReaders(t *testing.T) {
	database := testutil.SetupTestDB(t)

	g, ctx := errgroup.WithContext(context.Background())
	for _, table := range []string{
		"run_metadata", "run_environments", "artifact_metadata",
		"run_data_profiles", "run_validation_reports", "run_data_schemas",
	} {
		g.Go(func() error {
			var count int
			return database.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
		})
	}
	require.NoError(t, g.Wait())
}
