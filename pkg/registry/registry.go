// Package registry provides a concurrent keyed registry of active workers,
// supporting lookup by key and bulk cancel/join operations.
package registry

import (
	"sync"

	"github.com/jdziat/simple-task-workers/pkg/core"
)

// Member is the subset of the worker surface the registry needs.
type Member interface {
	Key() string
	Cancel() error
	Join() error
}

// Registry is a concurrent-safe map of active workers by key. Workers
// register themselves on Start and are removed on Join/Cancel/Dispose;
// entries therefore reflect workers whose run goroutine may still be live.
//
// One Registry is typically created at process start and injected into
// queue constructors; there is no process-wide instance.
type Registry struct {
	mu      sync.RWMutex
	members map[string]Member
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{members: make(map[string]Member)}
}

// Register adds a member under its key.
// Returns core.ErrDuplicateKey if the key is already taken.
func (r *Registry) Register(m Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.members[m.Key()]; exists {
		return core.ErrDuplicateKey
	}
	r.members[m.Key()] = m
	return nil
}

// Unregister removes the member with the given key. No-op if absent.
func (r *Registry) Unregister(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, key)
}

// Lookup returns the member registered under key, reporting whether it exists.
func (r *Registry) Lookup(key string) (Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[key]
	return m, ok
}

// Keys returns a snapshot of all registered keys.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.members))
	for k := range r.members {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of registered members.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// CancelByKey cancels the member registered under key.
// No-op with a nil error if the key is absent.
func (r *Registry) CancelByKey(key string) error {
	m, ok := r.Lookup(key)
	if !ok {
		return nil
	}
	return m.Cancel()
}

// JoinByKey joins the member registered under key.
// No-op with a nil error if the key is absent.
func (r *Registry) JoinByKey(key string) error {
	m, ok := r.Lookup(key)
	if !ok {
		return nil
	}
	return m.Join()
}

// CancelAll cancels every registered member.
func (r *Registry) CancelAll() {
	for _, m := range r.snapshot() {
		_ = m.Cancel()
	}
}

// JoinAll joins every registered member. Join removes the member from the
// registry, so the registry is empty once JoinAll returns.
func (r *Registry) JoinAll() {
	for _, m := range r.snapshot() {
		_ = m.Join()
	}
}

// snapshot copies the member list so bulk operations never hold the lock
// while calling into members (Join re-enters Unregister).
func (r *Registry) snapshot() []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		members = append(members, m)
	}
	return members
}
