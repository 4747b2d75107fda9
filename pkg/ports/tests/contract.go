package tests

import (
	"context"
	"testing"

	"github.com/aretw0/telelab/pkg/domain"
	"github.com/aretw0/telelab/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SessionStoreContractTest is a reusable test suite that verifies if an adapter complies with ports.SessionStore.
// The store must be empty when passed in.
func SessionStoreContractTest(t *testing.T, store ports.SessionStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, domain.KeyCredentials, `{"token":"abc","module":2}`))

		val, err := store.Get(ctx, domain.KeyCredentials)
		require.NoError(t, err)
		assert.Equal(t, `{"token":"abc","module":2}`, val)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, domain.KeyModule, "1"))
		require.NoError(t, store.Set(ctx, domain.KeyModule, "3"))

		val, err := store.Get(ctx, domain.KeyModule)
		require.NoError(t, err)
		assert.Equal(t, "3", val)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Keys", func(t *testing.T) {
		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{domain.KeyCredentials, domain.KeyModule}, keys)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, domain.KeyModule))
		_, err := store.Get(ctx, domain.KeyModule)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)

		assert.NoError(t, store.Delete(ctx, domain.KeyModule), "deleting a missing key is not an error")
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, domain.KeyModule, "4"))
		require.NoError(t, store.Clear(ctx))

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)

		_, err = store.Get(ctx, domain.KeyCredentials)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}
