package store

import (
	"context"
	"sync"
)

// IDAllocator hands out clinic identifiers for a correction batch. It is
// seeded once from the store's current maximum and then only counts upward
// in memory, so every id issued within a batch is strictly greater than any
// id issued before it, including ids issued earlier in the same batch. It
// must never be re-seeded mid-batch from a stale maximum.
//
// The mutex keeps reservation atomic if the batch is ever parallelized;
// reservation happens before any insert, never derived per worker.
type IDAllocator struct {
	mu   sync.Mutex
	next int64
}

// NewIDAllocator seeds an allocator from the store's highest issued clinic
// identifier.
func NewIDAllocator(ctx context.Context, s *Store) (*IDAllocator, error) {
	max, err := s.MaxClinicID(ctx)
	if err != nil {
		return nil, err
	}
	return &IDAllocator{next: max + 1}, nil
}

// NewIDAllocatorAt seeds an allocator whose first issued id is first.
func NewIDAllocatorAt(first int64) *IDAllocator {
	return &IDAllocator{next: first}
}

// Next reserves and returns the next unused identifier.
func (a *IDAllocator) Next() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.next
	a.next++
	return id
}
