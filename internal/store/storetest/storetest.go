// Package storetest holds the behaviour every KV backend must share.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendite/backend/internal/store"
)

// Run exercises kv under a unique key namespace so shared databases can be reused.
func Run(t *testing.T, kv store.KV) {
	t.Helper()
	ctx := context.Background()
	ns := fmt.Sprintf("it-%d/", time.Now().UnixNano())
	t.Cleanup(func() {
		entries, _ := kv.Scan(ctx, ns)
		for _, e := range entries {
			_ = kv.Delete(ctx, e.Key)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := kv.Get(ctx, ns+"missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("set get overwrite", func(t *testing.T) {
		key := ns + "sales/a"
		require.NoError(t, kv.Set(ctx, key, []byte(`{"sku":"A"}`)))
		require.NoError(t, kv.Set(ctx, key, []byte(`{"sku":"B"}`)))

		got, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"sku":"B"}`, string(got))
	})

	t.Run("scan is prefix bound and ordered", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, ns+"returns/2", []byte(`{"n":2}`)))
		require.NoError(t, kv.Set(ctx, ns+"returns/1", []byte(`{"n":1}`)))
		require.NoError(t, kv.Set(ctx, ns+"returnsX/1", []byte(`{"n":3}`)))
		require.NoError(t, kv.Set(ctx, ns+"Returns/9", []byte(`{"n":9}`)))

		entries, err := kv.Scan(ctx, ns+"returns/")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, ns+"returns/1", entries[0].Key)
		assert.Equal(t, ns+"returns/2", entries[1].Key)
		assert.JSONEq(t, `{"n":1}`, string(entries[0].Value))
	})

	t.Run("scan treats wildcards literally", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, ns+"odd_%/1", []byte(`{}`)))
		require.NoError(t, kv.Set(ctx, ns+"oddXY/1", []byte(`{}`)))

		entries, err := kv.Scan(ctx, ns+"odd_%/")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, ns+"odd_%/1", entries[0].Key)
	})

	t.Run("delete", func(t *testing.T) {
		key := ns + "inventory/SKU1"
		require.NoError(t, kv.Set(ctx, key, []byte(`{}`)))
		require.NoError(t, kv.Delete(ctx, key))
		_, err := kv.Get(ctx, key)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, kv.Delete(ctx, key), store.ErrNotFound)
	})

	t.Run("create only when absent", func(t *testing.T) {
		key := ns + "users/mario"
		require.NoError(t, store.Create(ctx, kv, key, []byte(`{"v":1}`)))
		assert.ErrorIs(t, store.Create(ctx, kv, key, []byte(`{"v":2}`)), store.ErrExists)

		got, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":1}`, string(got))
	})

	t.Run("rejects empty key", func(t *testing.T) {
		assert.ErrorIs(t, kv.Set(ctx, "", []byte(`{}`)), store.ErrInvalidKey)
	})
}
