// Package statetest provides a reusable contract suite for state.KV
// adapters.
package statetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/goliatone/go-filters/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunKVContract verifies that kv honours the state.KV contract. The suite
// writes keys under the "statetest-" prefix only.
func RunKVContract(t *testing.T, kv state.KV) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		value, ok, err := kv.Get(ctx, "statetest-missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, value)
	})

	t.Run("SetThenGet", func(t *testing.T) {
		payload := `{"search":"shoes","price":{"min":10,"max":50}}`
		require.NoError(t, kv.Set(ctx, "statetest-roundtrip", payload))

		value, ok, err := kv.Get(ctx, "statetest-roundtrip")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, payload, value)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "statetest-overwrite", "first"))
		require.NoError(t, kv.Set(ctx, "statetest-overwrite", "second"))

		value, ok, err := kv.Get(ctx, "statetest-overwrite")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "second", value)
	})

	t.Run("EmptyPayload", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "statetest-empty", ""))

		value, ok, err := kv.Get(ctx, "statetest-empty")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "", value)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "statetest-delete", "value"))
		require.NoError(t, kv.Delete(ctx, "statetest-delete"))

		_, ok, err := kv.Get(ctx, "statetest-delete")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		assert.NoError(t, kv.Delete(ctx, "statetest-never-written"))
	})

	t.Run("EmptyKey", func(t *testing.T) {
		err := kv.Set(ctx, "", "value")
		require.Error(t, err)
		assert.True(t, errors.Is(err, state.ErrKeyRequired), "expected ErrKeyRequired, got %v", err)
	})

	t.Run("Concurrent", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := fmt.Sprintf("statetest-concurrent-%d", i)
				assert.NoError(t, kv.Set(ctx, key, key))
				value, ok, err := kv.Get(ctx, key)
				assert.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, key, value)
			}(i)
		}
		wg.Wait()
	})
}
