// internal/guard/guard.go

// Package guard serializes roadmap (re)generation per customer. One process
// serves generation, so an in-memory keyed lock is the coordination store;
// the interface leaves room for a lease table if that ever changes.
package guard

import "sync"

// Guard is a keyed try-lock. Acquire returns false when the key is held.
type Guard struct {
	mu     sync.Mutex
	active map[int]struct{}
}

func New() *Guard {
	return &Guard{active: make(map[int]struct{})}
}

// TryAcquire takes the lock for id, reporting whether it was free.
func (g *Guard) TryAcquire(id int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.active[id]; held {
		return false
	}
	g.active[id] = struct{}{}
	return true
}

// Release frees the lock for id. Releasing an unheld id is a no-op, so a
// deferred Release is always safe.
func (g *Guard) Release(id int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, id)
}
