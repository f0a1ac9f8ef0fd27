// SPDX-License-Identifier: MPL-2.0

// Package reload orders concurrent catalog reloads so that a slow, older load
// can never overwrite the result of a newer one.
package reload

import "sync"

// Generation identifies one reload attempt. Later attempts have larger values.
type Generation uint64

// Tracker hands out generations and keeps the value of the newest committed
// one. The zero value is ready to use and safe for concurrent use.
type Tracker[T any] struct {
	mu        sync.Mutex
	started   Generation
	committed Generation
	value     T
	hasValue  bool
}

// Begin starts a reload attempt and returns its generation.
func (t *Tracker[T]) Begin() Generation {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started++
	return t.started
}

// Commit stores value if gen is the most recently started generation. It
// reports whether the value was accepted; results of superseded attempts are
// dropped.
func (t *Tracker[T]) Commit(gen Generation, value T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.started || gen <= t.committed {
		return false
	}
	t.committed = gen
	t.value = value
	t.hasValue = true
	return true
}

// IsCurrent reports whether gen is still the newest attempt.
func (t *Tracker[T]) IsCurrent(gen Generation) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return gen == t.started
}

// Current returns the committed value, its generation and whether any value
// has been committed.
func (t *Tracker[T]) Current() (T, Generation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, t.committed, t.hasValue
}
