package cellar

import "sync"

// nameLocks serializes cellar mutations per package name. Two kegs of
// different packages may be installed concurrently, two operations on the
// same name may not.
type nameLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newNameLocks() *nameLocks {
	return &nameLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for name and returns its unlock function.
func (n *nameLocks) acquire(name string) func() {
	n.mu.Lock()
	lock, ok := n.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		n.locks[name] = lock
	}
	n.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
