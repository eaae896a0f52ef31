// Package kvtest holds the behaviour every kv.Store driver must share.
package kvtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vinizap/studydock/kv"
)

// Run exercises a fresh, empty store returned by open.
func Run(t *testing.T, open func(t *testing.T) kv.Store) {
	t.Run("get missing key", func(t *testing.T) {
		s := open(t)
		_, err := s.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "folders", []byte(`[{"id":"a"}]`)))

		got, err := s.Get(ctx, "folders")
		require.NoError(t, err)
		assert.Equal(t, `[{"id":"a"}]`, string(got))
	})

	t.Run("set overwrites", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "k", []byte("one")))
		require.NoError(t, s.Set(ctx, "k", []byte("two")))

		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "two", string(got))
	})

	t.Run("remove", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "k", []byte("v")))
		require.NoError(t, s.Remove(ctx, "k"))
		require.NoError(t, s.Remove(ctx, "never-set"))

		_, err := s.Get(ctx, "k")
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("keys and clear", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "studydock-notes", []byte("[]")))
		require.NoError(t, s.Set(ctx, "folders", []byte("[]")))

		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"folders", "studydock-notes"}, keys)

		require.NoError(t, s.Clear(ctx))
		keys, err = s.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("ready until closed", func(t *testing.T) {
		s := open(t)
		assert.True(t, s.Ready(context.Background()))
		require.NoError(t, s.Close())
		assert.False(t, s.Ready(context.Background()))
	})
}
