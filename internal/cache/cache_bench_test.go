package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// BenchmarkInMemoryCache_Get_Hit benchmarks Get on a cache hit.
func BenchmarkInMemoryCache_Get_Hit(b *testing.B) {
	c := NewInMemoryCache(0)
	ctx := context.Background()
	key := cityKey("London")
	_ = c.Set(ctx, key, testPayload("London"), 5*time.Minute)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = c.Get(ctx, key)
	}
}

// BenchmarkInMemoryCache_Get_Miss benchmarks Get on a cache miss.
func BenchmarkInMemoryCache_Get_Miss(b *testing.B) {
	c := NewInMemoryCache(0)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = c.Get(ctx, cityKey("nonexistent"))
	}
}

// BenchmarkInMemoryCache_Set_Churn benchmarks Set under constant eviction
// pressure at the capacity bound.
func BenchmarkInMemoryCache_Set_Churn(b *testing.B) {
	c := NewInMemoryCache(128)
	ctx := context.Background()
	val := testPayload("London")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Set(ctx, cityKey(fmt.Sprintf("city-%d", i)), val, 5*time.Minute)
	}
}

// BenchmarkInMemoryCache_Concurrent benchmarks parallel Gets on one key.
func BenchmarkInMemoryCache_Concurrent(b *testing.B) {
	c := NewInMemoryCache(0)
	ctx := context.Background()
	key := cityKey("London")
	_ = c.Set(ctx, key, testPayload("London"), 5*time.Minute)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _, _ = c.Get(ctx, key)
		}
	})
}
