// Package cache provides the shared, load-once caches used by every agent.
package cache

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// LoadError is returned when a loader fails. Failed loads are not cached.
type LoadError struct {
	Key string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %q: %v", e.Key, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Memo maps a key to a value computed at most once. Concurrent callers asking
// for the same missing key share one in-flight load; callers for different
// keys never wait on each other. Entries live for the lifetime of the Memo.
type Memo[V any] struct {
	mu     sync.RWMutex
	values map[string]V
	group  singleflight.Group
}

// NewMemo creates an empty Memo.
func NewMemo[V any]() *Memo[V] {
	return &Memo[V]{values: make(map[string]V)}
}

// GetOrLoad returns the cached value for key, running load on a miss.
func (m *Memo[V]) GetOrLoad(key string, load func() (V, error)) (V, error) {
	if v, ok := m.get(key); ok {
		return v, nil
	}

	res, err, _ := m.group.Do(key, func() (interface{}, error) {
		// a load for this key may have finished between get and Do
		if v, ok := m.get(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, &LoadError{Key: key, Err: err}
		}
		m.mu.Lock()
		m.values[key] = v
		m.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Len returns the number of cached entries.
func (m *Memo[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

func (m *Memo[V]) get(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}
