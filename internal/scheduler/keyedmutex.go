package scheduler

import "sync"

// keyedMutex serializes work per beach ID. Overlapping ticks for the same
// beach queue behind each other instead of racing; distinct beaches never
// contend. Entries are never removed: the lock set is bounded by the
// number of beaches ever scheduled.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the mutex for the given key and returns its unlock func.
func (k *keyedMutex) Lock(key int64) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
