package memory

import (
	"context"
	"testing"
	"time"

	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository(time.Minute)

	t.Run("MissingKey_ShouldReturnCacheMiss", func(t *testing.T) {
		_, err := repo.Get(ctx, "absent")
		assert.ErrorIs(t, err, outbound.ErrCacheMiss)
	})

	t.Run("SetThenGet_ShouldReturnCopy", func(t *testing.T) {
		value := []byte(`["Dinner"]`)
		require.NoError(t, repo.Set(ctx, "popular_categories", value, 0))
		value[0] = 'x'

		got, err := repo.Get(ctx, "popular_categories")

		require.NoError(t, err)
		assert.Equal(t, `["Dinner"]`, string(got))
	})

	t.Run("Expired_ShouldMiss", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "short", []byte("v"), time.Millisecond))
		time.Sleep(5 * time.Millisecond)

		_, err := repo.Get(ctx, "short")

		assert.ErrorIs(t, err, outbound.ErrCacheMiss)
	})

	t.Run("DeleteAndFlush_ShouldRemove", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "a", []byte("1"), 0))
		require.NoError(t, repo.Set(ctx, "b", []byte("2"), 0))

		require.NoError(t, repo.Delete(ctx, "a"))
		_, err := repo.Get(ctx, "a")
		assert.ErrorIs(t, err, outbound.ErrCacheMiss)

		require.NoError(t, repo.Flush(ctx))
		_, err = repo.Get(ctx, "b")
		assert.ErrorIs(t, err, outbound.ErrCacheMiss)
	})
}
