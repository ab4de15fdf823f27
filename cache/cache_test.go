package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedis(rdb)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "freemusic:url:186016:exhigh", URLKey(186016, "exhigh"))
	assert.Equal(t, "freemusic:lyric:186016", LyricKey(186016))
	assert.Equal(t, "freemusic:cover:25x12:http://p1.music.126.net/a.jpg", CoverKey("http://p1.music.126.net/a.jpg", 25, 12))
}

func TestRedisGetSet(t *testing.T) {
	c, _ := newRedis(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, URLKey(1, "standard"), "http://m/1.mp3", time.Minute))

	val, ok, err := c.Get(ctx, URLKey(1, "standard"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "http://m/1.mp3", val)
}

func TestRedisTTLExpires(t *testing.T) {
	c, mr := newRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 15*time.Minute))
	assert.Equal(t, 15*time.Minute, mr.TTL("k"))

	mr.FastForward(16 * time.Minute)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := Dial(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = Dial(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestRedisServerDown(t *testing.T) {
	c, mr := newRedis(t)
	mr.Close()

	_, _, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	require.NoError(t, c.Set(context.Background(), "k", "v", time.Minute))
	_, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
