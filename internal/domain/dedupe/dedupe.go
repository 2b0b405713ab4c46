// Package dedupe tracks gathering-area ids already reported during a run.
// An area that straddles neighborhoods appears under each of them in the
// output but is counted once.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/toplanma/pkg/metrics"
)

// Deduper records seen ids.
type Deduper interface {
	// RecordAll records every id and returns how many were new.
	RecordAll(ctx context.Context, ids []string) int

	Size() int64
}

type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	capacity int
	size     atomic.Int64
}

// NewInMemoryDeduper creates an unbounded in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{capacity: 1024}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, d.capacity)
	return d
}

func (d *inMemoryDeduper) RecordAll(_ context.Context, ids []string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	fresh := 0
	for _, id := range ids {
		if d.recordLocked(id) {
			fresh++
		}
	}
	return fresh
}

// recordLocked reports whether id was new. d.mu must be held.
func (d *inMemoryDeduper) recordLocked(id string) bool {
	if _, ok := d.seen[id]; ok {
		return false
	}
	d.seen[id] = struct{}{}
	d.size.Add(1)
	metrics.RecordUniqueGatheringArea()
	return true
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
