package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"testing"

	"github.com/yndnr/roster-go/internal/core/domain"
	"github.com/yndnr/roster-go/internal/storage/memory"
	"github.com/yndnr/roster-go/internal/telemetry/logger"
)

// RecordCounts are the collection sizes benchmarked.
var RecordCounts = []int{1000, 10000, 100000}

var groups = []string{"A1", "A2", "B1", "B2", "C1"}

func newStudent(id int64) *domain.Student {
	return &domain.Student{
		ID:    id,
		Name:  fmt.Sprintf("student-%d", id),
		Age:   18 + int(id%10),
		Group: groups[id%int64(len(groups))],
	}
}

// prefillStore fills a store with count students.
func prefillStore(b *testing.B, count int) *memory.Store {
	b.Helper()
	store := memory.New(memory.WithLogger(logger.Discard()))
	ctx := context.Background()
	for i := 1; i <= count; i++ {
		if err := store.Put(ctx, newStudent(int64(i))); err != nil {
			b.Fatalf("Put: %v", err)
		}
	}
	return store
}

// reportMemory reports heap usage after a GC.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

func runWithCounts(b *testing.B, fn func(b *testing.B, count int)) {
	for _, count := range RecordCounts {
		b.Run(fmt.Sprintf("records_%d", count), func(b *testing.B) {
			fn(b, count)
		})
	}
}
