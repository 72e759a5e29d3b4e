package indexer

import "sync/atomic"

// IndexLock guards an Indexer against overlapping runs. A second caller
// fails fast instead of queueing behind the first.
type IndexLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire reports whether the lock was free and is now held
func (l *IndexLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release frees the lock. Only the holder may call it.
func (l *IndexLock) Release() {
	l.state.Store(0)
}

// Held reports whether a run is in progress
func (l *IndexLock) Held() bool {
	return l.state.Load() == 1
}
