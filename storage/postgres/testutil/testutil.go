// Package testutil provides a postgres client for database-backed tests.
package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basilisk-nexus/eventnexus/log"
	"github.com/basilisk-nexus/eventnexus/storage/postgres"
)

// ConnStringEnv names the environment variable holding the test database.
const ConnStringEnv = "CI_TEST_CONN_STRING"

// NewTestClient returns a postgres client for the CI database. The test is
// skipped in short mode or when no database is configured.
func NewTestClient(t *testing.T) *postgres.Client {
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	connString := os.Getenv(ConnStringEnv)
	if connString == "" {
		t.Skipf("%s not set", ConnStringEnv)
	}
	logger, err := log.NewLogger("postgres-test", os.Stdout, log.FmtJSON, log.LevelError)
	require.NoError(t, err, "log.NewLogger")

	client, err := postgres.NewClient(connString, logger)
	require.NoError(t, err, "postgres.NewClient")
	return client
}

// ConnString returns the CI database connection string.
func ConnString() string {
	return os.Getenv(ConnStringEnv)
}
