package registry

import (
	"context"
	"sync"

	"incall-control/internal/call"
)

// MemoryStore is an in-process registry used for the local env and tests.
// It is externally synchronized from the caller's point of view: every method
// takes the lock, so concurrent lookups and saves are safe.

type MemoryStore struct {
	mu    sync.Mutex
	calls map[int]call.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{calls: make(map[int]call.Snapshot)}
}

func (s *MemoryStore) Lookup(ctx context.Context, callID int) (call.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.calls[callID]
	return snap, ok, nil
}

func (s *MemoryStore) Save(ctx context.Context, snap call.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[snap.ID] = snap
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, callID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.calls, callID)
	return nil
}
