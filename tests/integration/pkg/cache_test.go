//go:build integration

package pkg_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"ratex/pkg/cache"
	"ratex/tests/integration/testutil"
)

func newRedisCache(t *testing.T, opts *cache.Options) cache.Cache {
	t.Helper()

	addr := testutil.RequireRedis(t)
	if opts == nil {
		opts = &cache.Options{}
	}
	opts.Backend = "redis"
	opts.RedisAddr = addr

	c, err := cache.NewRedisCache(opts)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	testutil.Cleanup(t, func() { c.Close() })
	return c
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	ctx, cancel := testutil.Context(t)
	defer cancel()

	c := newRedisCache(t, &cache.Options{DefaultTTL: time.Minute})

	key := testutil.UniqueKey(t, "cache")

	if err := c.Set(ctx, key, []byte("test-value"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(val) != "test-value" {
		t.Errorf("value = %s, want test-value", string(val))
	}

	exists, err := c.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("key should exist after set")
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// Verify deleted
	if _, err := c.Get(ctx, key); err != cache.ErrKeyNotFound {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
	exists, _ = c.Exists(ctx, key)
	if exists {
		t.Error("key should not exist after delete")
	}
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	ctx, cancel := testutil.Context(t)
	defer cancel()

	c := newRedisCache(t, nil)

	key := testutil.UniqueKey(t, "ttl")

	if err := c.Set(ctx, key, []byte("value"), 200*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := c.Get(ctx, key); err != nil {
		t.Fatalf("should exist immediately: %v", err)
	}

	// Wait for expiry
	time.Sleep(300 * time.Millisecond)

	if _, err := c.Get(ctx, key); err != cache.ErrKeyNotFound {
		t.Errorf("expected ErrKeyNotFound after TTL, got %v", err)
	}
}

func TestRedisCache_GetWithTTL(t *testing.T) {
	ctx, cancel := testutil.Context(t)
	defer cancel()

	c := newRedisCache(t, nil)

	key := testutil.UniqueKey(t, "getttl")
	c.Set(ctx, key, []byte("value"), time.Minute)
	testutil.Cleanup(t, func() { c.Delete(ctx, key) })

	val, ttl, err := c.GetWithTTL(ctx, key)
	if err != nil {
		t.Fatalf("GetWithTTL failed: %v", err)
	}
	if string(val) != "value" {
		t.Errorf("value = %s, want value", string(val))
	}
	if ttl < 50*time.Second || ttl > time.Minute {
		t.Errorf("ttl = %v, expected ~1 minute", ttl)
	}
}

func TestRedisCache_MOperations(t *testing.T) {
	ctx, cancel := testutil.Context(t)
	defer cancel()

	c := newRedisCache(t, nil)

	prefix := testutil.UniqueKey(t, "mops")

	entries := map[string][]byte{
		prefix + ":1": []byte("v1"),
		prefix + ":2": []byte("v2"),
		prefix + ":3": []byte("v3"),
	}
	if err := c.MSet(ctx, entries, time.Minute); err != nil {
		t.Fatalf("MSet failed: %v", err)
	}

	keys := []string{prefix + ":1", prefix + ":2", prefix + ":3", prefix + ":missing"}
	result, err := c.MGet(ctx, keys)
	if err != nil {
		t.Fatalf("MGet failed: %v", err)
	}
	if len(result) != 3 {
		t.Errorf("MGet returned %d keys, want 3", len(result))
	}
	if string(result[prefix+":1"]) != "v1" {
		t.Errorf("result[:1] = %s, want v1", string(result[prefix+":1"]))
	}

	count, err := c.MDelete(ctx, []string{prefix + ":1", prefix + ":2", prefix + ":3"})
	if err != nil {
		t.Fatalf("MDelete failed: %v", err)
	}
	if count != 3 {
		t.Errorf("MDelete count = %d, want 3", count)
	}
}

func TestRedisCache_Keys_DeleteByPattern(t *testing.T) {
	ctx, cancel := testutil.Context(t)
	defer cancel()

	c := newRedisCache(t, nil)

	prefix := testutil.UniqueKey(t, "pattern")

	c.Set(ctx, prefix+":a:1", []byte("1"), time.Minute)
	c.Set(ctx, prefix+":a:2", []byte("2"), time.Minute)
	c.Set(ctx, prefix+":b:1", []byte("3"), time.Minute)

	keys, err := c.Keys(ctx, prefix+":a:*")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("Keys returned %d, want 2", len(keys))
	}

	count, err := c.DeleteByPattern(ctx, prefix+":*")
	if err != nil {
		t.Fatalf("DeleteByPattern failed: %v", err)
	}
	if count != 3 {
		t.Errorf("DeleteByPattern count = %d, want 3", count)
	}

	keys, _ = c.Keys(ctx, prefix+":*")
	if len(keys) != 0 {
		t.Errorf("should have 0 keys after delete, got %d", len(keys))
	}
}

func TestRedisCache_StatsClear(t *testing.T) {
	ctx, cancel := testutil.Context(t)
	defer cancel()

	// Use separate DB so Clear does not wipe other tests
	c := newRedisCache(t, &cache.Options{RedisDB: 15})

	for i := 0; i < 10; i++ {
		c.Set(ctx, fmt.Sprintf("clear:key:%d", i), []byte("value"), time.Minute)
	}

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Backend != "redis" {
		t.Errorf("Backend = %s, want redis", stats.Backend)
	}
	if stats.TotalKeys < 10 {
		t.Errorf("TotalKeys = %d, want >= 10", stats.TotalKeys)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	stats, _ = c.Stats(ctx)
	if stats.TotalKeys != 0 {
		t.Errorf("TotalKeys = %d after clear, want 0", stats.TotalKeys)
	}
}

func TestRedisCache_Concurrent(t *testing.T) {
	ctx, cancel := testutil.Context(t)
	defer cancel()

	c := newRedisCache(t, &cache.Options{RedisPoolSize: 20})

	prefix := testutil.UniqueKey(t, "concurrent")

	var wg sync.WaitGroup
	errs := make(chan error, 200)

	// 100 concurrent writers
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("%s:%d", prefix, id)
			if err := c.Set(ctx, key, []byte(fmt.Sprintf("value-%d", id)), time.Minute); err != nil {
				errs <- fmt.Errorf("set %d: %w", id, err)
			}
		}(i)
	}
	wg.Wait()

	// 100 concurrent readers
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("%s:%d", prefix, id)
			val, err := c.Get(ctx, key)
			if err != nil {
				errs <- fmt.Errorf("get %d: %w", id, err)
				return
			}
			expected := fmt.Sprintf("value-%d", id)
			if string(val) != expected {
				errs <- fmt.Errorf("value mismatch for %d: got %s, want %s", id, string(val), expected)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}

	c.DeleteByPattern(ctx, prefix+":*")
}

func TestRedisCache_GuildNames(t *testing.T) {
	ctx, cancel := testutil.Context(t)
	defer cancel()

	c := newRedisCache(t, nil)

	guilds := cache.NewGuildNameCache(c, time.Minute)
	guildID := testutil.RandomSnowflake(t)
	testutil.Cleanup(t, func() { guilds.Invalidate(ctx, guildID) })

	// Cold cache
	_, found, err := guilds.Get(ctx, guildID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Error("guild name should not be cached initially")
	}

	// Lookup populates the cache through fetch
	fetchCalls := 0
	fetch := func(ctx context.Context, id uint64) (string, error) {
		fetchCalls++
		return "Indie Jams", nil
	}

	name, err := guilds.Lookup(ctx, guildID, fetch)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if name != "Indie Jams" {
		t.Errorf("name = %s, want Indie Jams", name)
	}
	if fetchCalls != 1 {
		t.Errorf("fetch calls = %d, want 1", fetchCalls)
	}

	// Second lookup must hit the cache
	name, err = guilds.Lookup(ctx, guildID, fetch)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if name != "Indie Jams" {
		t.Errorf("name = %s, want Indie Jams", name)
	}
	if fetchCalls != 1 {
		t.Errorf("fetch calls = %d after cached lookup, want 1", fetchCalls)
	}

	// Invalidate forces the next lookup back to fetch
	if err := guilds.Invalidate(ctx, guildID); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	_, found, err = guilds.Get(ctx, guildID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Error("guild name should be gone after invalidate")
	}

	if _, err := guilds.Lookup(ctx, guildID, fetch); err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if fetchCalls != 2 {
		t.Errorf("fetch calls = %d after invalidate, want 2", fetchCalls)
	}
}
