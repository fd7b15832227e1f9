// Package keylock provides per-key mutual exclusion. The participation
// allocator uses it to serialize capacity-affecting writes for a single
// event, so two concurrent moderation calls cannot both read
// confirmed < limit and jointly overshoot the limit.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyLock hands out a mutex per key. Entries are dropped once no goroutine
// holds or waits on them, so the map does not grow with the key space.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// New returns an empty KeyLock.
func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*entry)}
}

// Lock acquires the mutex for key, blocking until it is available.
func (k *KeyLock) Lock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key. It must be called exactly once per Lock.
func (k *KeyLock) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("keylock: unlock of unlocked key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
