package workflow

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// documentLocks serializes transitions per document. Locks are acquired in
// sorted ID order so the supersede path, which holds two documents at once,
// cannot deadlock against a concurrent transition on the other document.
type documentLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newDocumentLocks() *documentLocks {
	return &documentLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// acquire locks every given document and returns the release function.
func (d *documentLocks) acquire(ids ...uuid.UUID) func() {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].String() < unique[j].String()
	})

	held := make([]*sync.Mutex, 0, len(unique))
	for _, id := range unique {
		lock := d.lockFor(id)
		lock.Lock()
		held = append(held, lock)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (d *documentLocks) lockFor(id uuid.UUID) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[id] = lock
	}
	return lock
}
