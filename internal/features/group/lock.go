package group

import "sync"

// LockMap hands out one mutex per group id so read-modify-write sequences
// on the same group serialize. Cross-group operations do not contend.
// A single instance is shared by every service that mutates group state.
type LockMap struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLockMap() *LockMap {
	return &LockMap{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for a group id and returns its unlock func.
func (l *LockMap) Lock(id string) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Forget drops the mutex for a deleted group.
func (l *LockMap) Forget(id string) {
	l.mu.Lock()
	delete(l.locks, id)
	l.mu.Unlock()
}
