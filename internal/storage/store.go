// Package storage provides project storage abstractions and implementations.
package storage

import (
	"github.com/johanstenius/mocktail-sub000/pkg/mock"
)

// ProjectStore defines the interface for resolving and managing projects.
// The engine only reads from it; writes happen at config load or through
// external management tooling.
type ProjectStore interface {
	// Get retrieves a project by ID. Returns nil if not found.
	Get(id string) *mock.Project

	// Set stores or updates a project.
	Set(p *mock.Project) error

	// Delete removes a project by ID. Returns true if deleted.
	Delete(id string) bool

	// List returns all stored projects sorted by name.
	List() []*mock.Project

	// Count returns the number of stored projects.
	Count() int

	// Clear removes all stored projects.
	Clear()
}
