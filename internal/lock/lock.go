// Package lock provides in-process mutual exclusion keyed by integer ids.
package lock

import (
	"sort"
	"sync"
)

// KeyedMutex hands out one exclusive lock per key. Entries are dropped once no
// goroutine holds or waits for them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int64]*keyLock)}
}

func (k *KeyedMutex) acquire(key int64) *keyLock {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	return l
}

func (k *KeyedMutex) release(key int64, l *keyLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

// Lock blocks until key is held and returns the function that releases it.
func (k *KeyedMutex) Lock(key int64) (unlock func()) {
	l := k.acquire(key)
	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.release(key, l)
	}
}

// TryLockAll acquires every key without blocking. If any key is already held,
// nothing is kept and ok is false.
func (k *KeyedMutex) TryLockAll(keys []int64) (unlock func(), ok bool) {
	keys = uniqueSorted(keys)
	held := make([]*keyLock, 0, len(keys))

	unlockHeld := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			k.release(keys[i], held[i])
		}
	}

	for _, key := range keys {
		l := k.acquire(key)
		if !l.mu.TryLock() {
			k.release(key, l)
			unlockHeld()
			return nil, false
		}
		held = append(held, l)
	}
	return unlockHeld, true
}

func uniqueSorted(keys []int64) []int64 {
	out := append([]int64(nil), keys...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, key := range out {
		if i == 0 || key != out[n-1] {
			out[n] = key
			n++
		}
	}
	return out[:n]
}
