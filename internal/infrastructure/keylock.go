package infrastructure

import "sync"

// KeyedLocks hands out one mutex per string key. The pipeline keys it by
// conversation so two chat turns for the same customer cannot interleave cart
// writes; the reservation guard keys it by resource. Entries are refcounted
// so the map does not grow forever.
type KeyedLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedLocks() *KeyedLocks {
	return &KeyedLocks{locks: make(map[string]*lockEntry)}
}

// Lock blocks until the key's critical section is free and returns the
// matching unlock func. Callers must release before any network round trip
// that does not need ordering.
func (l *KeyedLocks) Lock(key string) func() {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &lockEntry{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
