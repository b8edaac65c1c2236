package storage

import (
	"errors"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/johanstenius/mocktail-sub000/pkg/mock"
)

// ErrInvalidProject is returned when storing a project without an ID.
var ErrInvalidProject = errors.New("project must have an id")

// InMemoryProjectStore is a thread-safe in-memory implementation of
// ProjectStore.
type InMemoryProjectStore struct {
	mu       sync.RWMutex
	projects map[string]*mock.Project
}

// NewInMemoryProjectStore creates a new InMemoryProjectStore.
func NewInMemoryProjectStore() *InMemoryProjectStore {
	return &InMemoryProjectStore{
		projects: make(map[string]*mock.Project),
	}
}

// Get retrieves a project by ID. Returns nil if not found.
func (s *InMemoryProjectStore) Get(id string) *mock.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects[id]
}

// Set stores or updates a project.
func (s *InMemoryProjectStore) Set(p *mock.Project) error {
	if p == nil || p.ID == "" {
		return ErrInvalidProject
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
	return nil
}

// Delete removes a project by ID. Returns true if deleted.
func (s *InMemoryProjectStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.projects[id]; exists {
		delete(s.projects, id)
		return true
	}
	return false
}

// List returns all stored projects sorted by name, then ID for stability.
func (s *InMemoryProjectStore) List() []*mock.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := lo.Values(s.projects)
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// Count returns the number of stored projects.
func (s *InMemoryProjectStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.projects)
}

// Clear removes all stored projects.
func (s *InMemoryProjectStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = make(map[string]*mock.Project)
}

var _ ProjectStore = (*InMemoryProjectStore)(nil)
