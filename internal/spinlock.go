// Package internal holds synchronization helpers for the array package.
package internal

import (
	"runtime"
	"sync/atomic"
)

const maxBackoff = 16

// SpinLock is a sync.Locker for very short critical sections. Waiters yield
// with exponential backoff instead of parking.
type SpinLock struct {
	state atomic.Int32
}

// Lock spins until the lock is acquired.
func (sl *SpinLock) Lock() {
	var backoff = 1
	for !sl.TryLock() {
		for i := 0; i < backoff; i++ {
			runtime.Gosched()
		}
		if backoff < maxBackoff {
			backoff <<= 1
		}
	}
}

// TryLock acquires the lock if it is free and reports whether it did.
func (sl *SpinLock) TryLock() bool {
	return sl.state.CompareAndSwap(0, 1)
}

// Unlock releases the lock.
func (sl *SpinLock) Unlock() {
	sl.state.Store(0)
}
