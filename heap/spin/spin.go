// Package spin implements the heap's global lock: a busy-waiting mutex built
// on a single atomic exchange.
package spin

import "sync/atomic"

const (
	unlocked uint32 = 0
	locked   uint32 = 1
)

// Mutex is a non-reentrant spin lock. The zero value is unlocked.
//
// There is no backoff, no fairness and no owner tracking. A flow that
// already holds the lock and calls Lock again (an interrupt handler that
// re-enters the allocator, for example) spins forever. Platforms with
// nested interrupts must mask them while the lock is held.
type Mutex struct {
	state atomic.Uint32
}

// Lock spins until the lock is acquired.
func (m *Mutex) Lock() {
	for m.state.Swap(locked) != unlocked {
	}
}

// TryLock acquires the lock if it is free and reports whether it did.
func (m *Mutex) TryLock() bool {
	return m.state.Swap(locked) == unlocked
}

// Unlock releases the lock. Unlocking an unlocked Mutex is allowed.
func (m *Mutex) Unlock() {
	m.state.Store(unlocked)
}

// Locked reports whether the lock is currently held.
func (m *Mutex) Locked() bool {
	return m.state.Load() == locked
}
