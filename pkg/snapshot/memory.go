package snapshot

import (
	"context"
	"sort"
	"sync"

	"github.com/matzehuels/traitdex/pkg/errors"
)

// MemoryStore is an in-memory snapshot store for development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]*Snapshot // keyed by trait + "\x00" + docRoot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]*Snapshot)}
}

func storeKey(trait, docRoot string) string {
	return trait + "\x00" + docRoot
}

// Put stores a snapshot, replacing any previous one for the same key.
func (s *MemoryStore) Put(ctx context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[storeKey(snap.Trait, snap.DocRoot)] = snap
	return nil
}

// Get retrieves the snapshot for a trait and doc root.
func (s *MemoryStore) Get(ctx context.Context, trait, docRoot string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[storeKey(trait, docRoot)]
	if !ok {
		return nil, errors.New(errors.ErrCodeSnapshotNotFound, "no snapshot for %s in %s", trait, docRoot)
	}
	return snap, nil
}

// List returns all snapshots, newest first.
func (s *MemoryStore) List(ctx context.Context) ([]*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Snapshot, 0, len(s.snaps))
	for _, snap := range s.snaps {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Close does nothing for the memory store.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
