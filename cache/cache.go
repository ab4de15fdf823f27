package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "freemusic"

// Cache memoizes short-lived API answers such as stream URLs and lyrics
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

// URLKey is the key of a resolved stream URL at a quality level
func URLKey(songID int64, level string) string {
	return fmt.Sprintf("%s:url:%d:%s", keyPrefix, songID, level)
}

// LyricKey is the key of a song's LRC text
func LyricKey(songID int64) string {
	return fmt.Sprintf("%s:lyric:%d", keyPrefix, songID)
}

// CoverKey is the key of a cover rendered as ASCII at a fixed size
func CoverKey(url string, width, height int) string {
	return fmt.Sprintf("%s:cover:%dx%d:%s", keyPrefix, width, height, url)
}

// Redis stores entries in a Redis server
type Redis struct {
	rdb *redis.Client
}

// NewRedis wraps an existing client
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

// Dial parses a redis:// URL and checks the server answers
func Dial(ctx context.Context, rawURL string) (*Redis, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedis(rdb), nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

// Nop never stores anything; used when no Redis URL is configured
type Nop struct{}

func (Nop) Get(context.Context, string) (string, bool, error)        { return "", false, nil }
func (Nop) Set(context.Context, string, string, time.Duration) error { return nil }
func (Nop) Close() error                                             { return nil }
