package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/juju/errors"
	"github.com/mediocregopher/radix/v4"
)

var ErrNoValueForKey = errors.New("cache: no value found for the given key")

type Cache interface {
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
}

type cache struct {
	redis radix.Client
}

func NewCache(redis radix.Client) Cache {
	return &cache{redis: redis}
}

// SetEx stores value under key for ttl, rounded down to whole seconds with a
// floor of one second.
func (c *cache) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	err := c.redis.Do(ctx, radix.FlatCmd(nil, "SETEX", key, seconds, value))

	return errors.Trace(err)
}

func (c *cache) Get(ctx context.Context, key string) (string, error) {
	var out string

	mb := radix.Maybe{Rcv: &out}
	if err := c.redis.Do(ctx, radix.Cmd(&mb, "GET", key)); err != nil {
		return "", errors.Trace(err)
	}

	if mb.Null {
		return "", ErrNoValueForKey
	}

	return out, nil
}

func (c *cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	err := c.redis.Do(ctx, radix.Cmd(nil, "DEL", keys...))

	return errors.Trace(err)
}

// GetJSON decodes the value stored under key into dest.
// ErrNoValueForKey is returned untraced so callers can test for a miss with errors.Is.
func GetJSON(ctx context.Context, c Cache, key string, dest any) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNoValueForKey) {
			return err
		}

		return errors.Trace(err)
	}

	return errors.Trace(json.Unmarshal([]byte(raw), dest))
}

func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Trace(err)
	}

	return errors.Trace(c.SetEx(ctx, key, string(data), ttl))
}
