package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/davidleathers/aire-backend/internal/infrastructure/config"
)

func setupTestRedis(t *testing.T) (Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := config.Defaults().Redis
	cfg.Enabled = true
	cfg.Addr = mr.Addr()

	c, err := NewRedisCache(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

func TestNewRedisCache(t *testing.T) {
	t.Run("nil logger", func(t *testing.T) {
		_, err := NewRedisCache(context.Background(), config.RedisConfig{Addr: "localhost:0"}, nil)
		assert.Error(t, err)
	})

	t.Run("unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := NewRedisCache(context.Background(), config.RedisConfig{Addr: addr}, zaptest.NewLogger(t))
		assert.Error(t, err)
	})
}

func TestRedisCache_Operations(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.True(t, IsNotFound(err))

	type payload struct {
		Total int `json:"total"`
	}
	require.NoError(t, c.SetJSON(ctx, "json", payload{Total: 3}, 0))
	var p payload
	require.NoError(t, c.GetJSON(ctx, "json", &p))
	assert.Equal(t, 3, p.Total)

	require.NoError(t, c.Set(ctx, "p:1", "a", 0))
	require.NoError(t, c.Set(ctx, "p:2", "b", 0))
	n, err := c.DeletePrefix(ctx, "p:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, mr.Exists("p:1"))
	assert.True(t, mr.Exists("json"))

	require.NoError(t, c.Delete(ctx))
	require.NoError(t, c.Delete(ctx, "json"))
	assert.False(t, mr.Exists("json"))
}

func TestSummaryCache(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()
	sc := NewSummaryCache(c, time.Minute, zaptest.NewLogger(t))

	var out map[string]int
	hit, err := sc.Load(ctx, 5, &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, sc.Save(ctx, 5, map[string]int{"incidents": 3}))
	require.NoError(t, sc.Save(ctx, 10, map[string]int{"incidents": 3}))
	assert.True(t, mr.Exists("aire:summary:5"))
	assert.Equal(t, time.Minute, mr.TTL("aire:summary:5"))

	hit, err = sc.Load(ctx, 5, &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, out["incidents"])

	require.NoError(t, sc.Invalidate(ctx))
	assert.False(t, mr.Exists("aire:summary:5"))
	assert.False(t, mr.Exists("aire:summary:10"))
}
