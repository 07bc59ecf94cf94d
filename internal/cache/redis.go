package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewRedisClient(addr, pass string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})
}

func Ping(ctx context.Context, c *redis.Client) error {
	return c.Ping(ctx).Err()
}

// HashCache stores JSON documents as fields of per-key redis hashes, so a
// whole group of cached reads can be dropped with one DEL.
type HashCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewHashCache(client redis.UniversalClient, prefix string, ttl time.Duration) *HashCache {
	return &HashCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *HashCache) key(parts ...string) string {
	return c.prefix + ":" + strings.Join(parts, ":")
}

// Get decodes the cached field into dst. A miss returns false and no error.
func (c *HashCache) Get(ctx context.Context, key []string, field string, dst any) (bool, error) {
	raw, err := c.client.HGet(ctx, c.key(key...), field).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("hget %s: %w", field, err)
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", field, err)
	}
	return true, nil
}

func (c *HashCache) store(ctx context.Context, pipe redis.Pipeliner, k, field string, raw []byte) {
	pipe.HSet(ctx, k, field, raw)
	if c.ttl > 0 {
		pipe.Expire(ctx, k, c.ttl)
	}
}

// genKey counts the invalidations of k. It has no TTL so a reader never
// sees the counter go back to zero.
func genKey(k string) string { return k + ":gen" }

// Generation returns how many times key has been invalidated. Read it
// before loading the value later passed to SetAt.
func (c *HashCache) Generation(ctx context.Context, key []string) (int64, error) {
	n, err := c.client.Get(ctx, genKey(c.key(key...))).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get generation: %w", err)
	}
	return n, nil
}

var errStale = errors.New("generation moved")

// SetAt stores v only while key is still at generation gen. It reports
// false when an invalidation got in first.
func (c *HashCache) SetAt(ctx context.Context, key []string, gen int64, field string, v any) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode cached %s: %w", field, err)
	}
	k := c.key(key...)
	gk := genKey(k)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gk).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			c.store(ctx, pipe, k, field, raw)
			return nil
		})
		return err
	}, gk)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("hset %s: %w", field, err)
	}
}

// Invalidate drops every field of the given keys and bumps their
// generations in one transaction.
func (c *HashCache) Invalidate(ctx context.Context, keys ...[]string) error {
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, c.key(k...))
	}
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, names...)
	for _, n := range names {
		pipe.Incr(ctx, genKey(n))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("del %v: %w", names, err)
	}
	return nil
}
