package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))

	v, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, v)
	assert.Equal(t, len(migrations), ExpectedSchemaVersion)
}

func TestMigrate_CreatesTables(t *testing.T) {
	store := createTestStorage(t)

	for _, table := range []string{"users", "accounts", "signal_snapshots", "persona_assignments"} {
		var n int
		err := store.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "table %s", table)
	}

	var hasStrategy int
	err := store.db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('persona_assignments') WHERE name='strategy'`).Scan(&hasStrategy)
	require.NoError(t, err)
	assert.Equal(t, 1, hasStrategy)
}

func TestMigrate_NilContext(t *testing.T) {
	store := createTestStorage(t)
	//nolint:staticcheck // exercising the nil guard
	assert.ErrorIs(t, store.Migrate(nil), ErrNilContext)
}
