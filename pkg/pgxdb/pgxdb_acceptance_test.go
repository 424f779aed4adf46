//go:build acceptance

package pgxdb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/eligibility/migrator/migratortest"
	"github.com/screwyprof/eligibility/pkg/pgxdb"
)

func TestNewConnectionAcceptance(t *testing.T) {
	t.Parallel()

	t.Run("it opens a pinged pool with the default sizing", func(t *testing.T) {
		t.Parallel()

		// Arrange
		testDB := migratortest.CreateResultsTestDatabase(t, "../../migrations")

		// Act
		pool, err := pgxdb.NewConnection(t.Context(), testDB.Config().ConnString())

		// Assert
		require.NoError(t, err)
		defer pool.Close()
		assert.Equal(t, pgxdb.DefaultMinConns, pool.Config().MinConns)
		assert.Equal(t, pgxdb.DefaultMaxConns, pool.Config().MaxConns)
	})
}
