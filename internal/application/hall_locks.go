package application

import "sync"

// HallLocks serializes check-then-write sequences per hall. An admissibility
// check followed by a separate write is a race: two callers could both pass
// the check for overlapping intervals before either writes. Holding the
// hall's lock across both steps closes the window while leaving operations
// on different halls fully parallel.
//
// A single HallLocks instance is shared by every service that writes
// intervals, so a booking and a maintenance window for the same hall can
// never be admitted concurrently.
type HallLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewHallLocks constructs an empty lock set.
func NewHallLocks() *HallLocks {
	return &HallLocks{locks: make(map[string]*sync.Mutex)}
}

func (h *HallLocks) lockFor(hallID string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	lock, ok := h.locks[hallID]
	if !ok {
		lock = &sync.Mutex{}
		h.locks[hallID] = lock
	}
	return lock
}

// withHallLock runs fn while holding the mutex for hallID.
func (h *HallLocks) withHallLock(hallID string, fn func() error) error {
	lock := h.lockFor(hallID)
	lock.Lock()
	defer lock.Unlock()
	return fn()
}
