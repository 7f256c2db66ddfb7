package benchmark

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ratex/pkg/ratelimit"
)

func BenchmarkMemoryLimiter_Allow(b *testing.B) {
	limiter := ratelimit.NewMemoryLimiter(&ratelimit.Config{
		Requests:        1000000,
		Window:          time.Minute,
		Strategy:        "sliding_window",
		CleanupInterval: time.Hour,
	})
	defer limiter.Close()

	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow(ctx, "benchmark-key")
	}
}

func BenchmarkMemoryLimiter_Allow_Parallel(b *testing.B) {
	limiter := ratelimit.NewMemoryLimiter(&ratelimit.Config{
		Requests:        1000000,
		Window:          time.Minute,
		Strategy:        "sliding_window",
		CleanupInterval: time.Hour,
	})
	defer limiter.Close()

	ctx := context.Background()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			limiter.Allow(ctx, "benchmark-key")
		}
	})
}

func BenchmarkMemoryLimiter_Allow_PerUserKeys(b *testing.B) {
	limiter := ratelimit.NewMemoryLimiter(&ratelimit.Config{
		Requests:        1000,
		Window:          time.Minute,
		Strategy:        "sliding_window",
		CleanupInterval: time.Hour,
	})
	defer limiter.Close()

	ctx := context.Background()

	// Ключи в том же виде, что у cooldown middleware
	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = ratelimit.CooldownKey("submit", uint64(700000+i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow(ctx, keys[i%1000])
	}
}

func BenchmarkMemoryLimiter_TokenBucket(b *testing.B) {
	limiter := ratelimit.NewMemoryLimiter(&ratelimit.Config{
		Requests:        1000000,
		Window:          time.Minute,
		Strategy:        "token_bucket",
		BurstSize:       100,
		CleanupInterval: time.Hour,
	})
	defer limiter.Close()

	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow(ctx, "benchmark-key")
	}
}

func BenchmarkMemoryLimiter_GetInfo(b *testing.B) {
	limiter := ratelimit.NewMemoryLimiter(&ratelimit.Config{
		Requests:        1000,
		Window:          time.Minute,
		CleanupInterval: time.Hour,
	})
	defer limiter.Close()

	ctx := context.Background()

	// Pre-populate
	for i := 0; i < 100; i++ {
		limiter.Allow(ctx, "info-key")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.GetInfo(ctx, "info-key")
	}
}

func BenchmarkMemoryLimiter_Reset(b *testing.B) {
	limiter := ratelimit.NewMemoryLimiter(&ratelimit.Config{
		Requests:        1000,
		Window:          time.Minute,
		CleanupInterval: time.Hour,
	})
	defer limiter.Close()

	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("reset-key-%d", i)
		limiter.Allow(ctx, key)
		limiter.Reset(ctx, key)
	}
}

func BenchmarkMemoryLimiter_HighContention(b *testing.B) {
	limiter := ratelimit.NewMemoryLimiter(&ratelimit.Config{
		Requests:        1000000,
		Window:          time.Minute,
		Strategy:        "sliding_window",
		CleanupInterval: time.Hour,
	})
	defer limiter.Close()

	ctx := context.Background()

	// Single key with high contention
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			limiter.Allow(ctx, "contention-key")
		}
	})
}

func BenchmarkCooldownKey(b *testing.B) {
	for i := 0; i < b.N; i++ {
		ratelimit.CooldownKey("submit", 700100200300400)
	}
}

func BenchmarkCommandLimits_Get(b *testing.B) {
	limits := ratelimit.NewCommandLimits(nil)
	limits.Set("submit", &ratelimit.Config{Requests: 5, Window: time.Minute})
	limits.Set("exchange", &ratelimit.Config{Requests: 2, Window: time.Minute})

	b.Run("override", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			limits.Get("submit")
		}
	})

	b.Run("default", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			limits.Get("played")
		}
	})
}
