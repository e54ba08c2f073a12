package benchmark

import (
	"context"
	"math/rand/v2"
	"testing"
)

// BenchmarkStoreGet measures concurrent point reads.
func BenchmarkStoreGet(b *testing.B) {
	runWithCounts(b, func(b *testing.B, count int) {
		store := prefillStore(b, count)
		ctx := context.Background()

		b.ResetTimer()
		b.ReportAllocs()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				id := rand.Int64N(int64(count)) + 1
				if _, err := store.Get(ctx, id); err != nil {
					b.Fatal(err)
				}
			}
		})
	})
}

// BenchmarkStorePut measures concurrent upserts.
func BenchmarkStorePut(b *testing.B) {
	runWithCounts(b, func(b *testing.B, count int) {
		store := prefillStore(b, count)
		ctx := context.Background()

		b.ResetTimer()
		b.ReportAllocs()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				if err := store.Put(ctx, newStudent(rand.Int64N(int64(count))+1)); err != nil {
					b.Fatal(err)
				}
			}
		})
	})
}

// BenchmarkStoreList measures the collection accessor used by snapshots.
func BenchmarkStoreList(b *testing.B) {
	runWithCounts(b, func(b *testing.B, count int) {
		store := prefillStore(b, count)
		ctx := context.Background()

		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := store.List(ctx); err != nil {
				b.Fatal(err)
			}
		}
	})
}
