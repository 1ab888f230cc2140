// Package databag provides the per-worker key/value side-channel passed
// into each action invocation.
package databag

import "sync"

// Bag is a thread-safe key/value store. Keys are unique; writes to an
// existing key overwrite the previous value (last write wins). A Bag is
// supplied to a worker at construction and merely referenced, never owned:
// callers may read and mutate it while the worker is running.
type Bag struct {
	mu     sync.RWMutex
	values map[string]any
}

// New creates an empty Bag.
func New() *Bag {
	return &Bag{values: make(map[string]any)}
}

// From creates a Bag pre-populated with the given values.
func From(values map[string]any) *Bag {
	b := New()
	for k, v := range values {
		b.values[k] = v
	}
	return b
}

// Get returns the value stored under key, reporting whether it was present.
func (b *Bag) Get(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	return v, ok
}

// Set stores value under key, overwriting any previous value.
func (b *Bag) Set(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
}

// Delete removes key from the bag.
func (b *Bag) Delete(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
}

// Keys returns a snapshot of all keys currently in the bag.
func (b *Bag) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of entries in the bag.
func (b *Bag) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.values)
}

// GetInt returns the value under key as an int, or 0 if absent or not an int.
func (b *Bag) GetInt(key string) int {
	v, ok := b.Get(key)
	if !ok {
		return 0
	}
	n, _ := v.(int)
	return n
}

// GetString returns the value under key as a string, or "" if absent or
// not a string.
func (b *Bag) GetString(key string) string {
	v, ok := b.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
