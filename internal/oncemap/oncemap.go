// Package oncemap memoizes computations per key. A key is computed at most
// once successfully; concurrent callers for the same key share a single
// computation, and failures are never stored.
package oncemap

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Map is a concurrency-safe memo map. The zero value is not usable; create
// maps with New.
type Map[K comparable, V any] struct {
	mu    sync.RWMutex
	done  map[K]V
	group singleflight.Group
	keyOf func(K) string
}

// New creates a map. keyOf must encode distinct keys as distinct strings;
// it names the in-flight computation a caller joins.
func New[K comparable, V any](keyOf func(K) string) *Map[K, V] {
	return &Map[K, V]{done: make(map[K]V), keyOf: keyOf}
}

// Lookup returns the stored value for k, if any.
func (m *Map[K, V]) Lookup(k K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.done[k]
	return v, ok
}

// Get returns the stored value for k or runs compute to produce it.
//
// While a computation for k is in flight, other callers for k wait for it
// instead of starting their own. A successful result is stored and returned
// to everyone; later calls return it without running compute. When the
// computation fails, the caller that ran it gets the error, and every
// caller that only joined it starts over with a run of its own.
func (m *Map[K, V]) Get(k K, compute func() (V, error)) (V, error) {
	key := m.keyOf(k)
	for {
		if v, ok := m.Lookup(k); ok {
			return v, nil
		}

		ran := false
		res, err, _ := m.group.Do(key, func() (any, error) {
			ran = true
			if v, ok := m.Lookup(k); ok {
				return v, nil
			}
			v, err := compute()
			if err != nil {
				return nil, err
			}
			m.mu.Lock()
			m.done[k] = v
			m.mu.Unlock()
			return v, nil
		})
		if err == nil {
			return res.(V), nil
		}
		if ran {
			var zero V
			return zero, err
		}
	}
}

// Len returns the number of stored values.
func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.done)
}

// Clear drops every stored value. Computations in flight still store their
// result when they finish.
func (m *Map[K, V]) Clear() {
	m.mu.Lock()
	clear(m.done)
	m.mu.Unlock()
}
