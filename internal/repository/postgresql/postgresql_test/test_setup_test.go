package postgresql_test

import (
	"context"
	"os"
	"testing"

	"github.com/moyuu-az/attendance-system/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

// newTestDB connects to TEST_DATABASE_URL, applies migrations and empties
// every table. Tests are skipped when the variable is unset.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	require.NoError(t, database.RunMigrations(dsn))

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = db.Exec(ctx, "TRUNCATE TABLE break_times, attendances, hourly_rates, users CASCADE")
	require.NoError(t, err)

	return db
}
