package core

import "sync"

// keyLock hands out one mutex per key and drops it once nobody holds it.
// Writes for the same estimator queue up while different estimators proceed in parallel.
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is free and returns the matching unlock function.
func (kl *keyLock) Lock(key string) func() {
	kl.mu.Lock()
	m, ok := kl.locks[key]
	if !ok {
		m = &refMutex{}
		kl.locks[key] = m
	}
	m.refs++
	kl.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		kl.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(kl.locks, key)
		}
		kl.mu.Unlock()
	}
}

// size returns the number of keys currently tracked.
func (kl *keyLock) size() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.locks)
}
