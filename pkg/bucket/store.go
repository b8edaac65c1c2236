// Package bucket provides named, project-scoped mutable JSON arrays that back
// stateful mock behavior. Reads and writes to one bucket are serialized per
// (project, name) key so concurrent requests never lose updates.
package bucket

import (
	"sort"
	"sync"
)

// Accessor is the read surface handed to the template engine.
type Accessor interface {
	// Items returns a snapshot of the bucket's items and whether it exists.
	Items(projectID, name string) ([]any, bool)
}

type key struct {
	projectID string
	name      string
}

type entry struct {
	mu    sync.Mutex
	items []any
	seed  []any
}

// Store is the in-memory bucket container. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[key]*entry
}

// NewStore creates an empty bucket store.
func NewStore() *Store {
	return &Store{entries: make(map[key]*entry)}
}

func (s *Store) lookup(projectID, name string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[key{projectID, name}]
}

func (s *Store) ensure(projectID, name string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{projectID, name}
	e, ok := s.entries[k]
	if !ok {
		e = &entry{}
		s.entries[k] = e
	}
	return e
}

// Seed registers a bucket with initial items; Reset restores this state.
func (s *Store) Seed(projectID, name string, items []any) {
	e := s.ensure(projectID, name)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seed = snapshot(items)
	e.items = snapshot(items)
}

// Items returns a snapshot of the bucket's items and whether it exists.
func (s *Store) Items(projectID, name string) ([]any, bool) {
	e := s.lookup(projectID, name)
	if e == nil {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.items), true
}

// Len returns the bucket's item count, 0 when the bucket is absent.
func (s *Store) Len(projectID, name string) int {
	e := s.lookup(projectID, name)
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items)
}

// Item returns the item at index. Negative indices count from the end.
// Returns (nil, false) when the bucket is absent or the index out of range.
func (s *Store) Item(projectID, name string, index int) (any, bool) {
	e := s.lookup(projectID, name)
	if e == nil {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.items)
	if index < 0 {
		index += n
	}
	if index < 0 || index >= n {
		return nil, false
	}
	return e.items[index], true
}

// Put replaces the bucket's items, creating the bucket if needed.
func (s *Store) Put(projectID, name string, items []any) {
	e := s.ensure(projectID, name)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = snapshot(items)
}

// Update applies fn to the bucket's items under the bucket's lock, creating
// the bucket if needed. fn receives the current items and returns the new
// ones; two concurrent updates never observe the same pre-write state.
func (s *Store) Update(projectID, name string, fn func(items []any) []any) {
	e := s.ensure(projectID, name)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = fn(e.items)
}

// Reset restores every bucket in the project to its seed state. Buckets
// created at runtime (no seed) are emptied.
func (s *Store) Reset(projectID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, e := range s.entries {
		if k.projectID != projectID {
			continue
		}
		e.mu.Lock()
		e.items = snapshot(e.seed)
		e.mu.Unlock()
	}
}

// Names returns the project's bucket names in sorted order.
func (s *Store) Names(projectID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	for k := range s.entries {
		if k.projectID == projectID {
			names = append(names, k.name)
		}
	}
	sort.Strings(names)
	return names
}

func snapshot(items []any) []any {
	if items == nil {
		return nil
	}
	out := make([]any, len(items))
	copy(out, items)
	return out
}

var _ Accessor = (*Store)(nil)
