package store

import (
	"context"
	"sync"

	"github.com/fluxorio/todolist/pkg/models"
)

// MemoryPersister keeps the snapshot in memory. Useful for tests and for
// running without durability.
type MemoryPersister struct {
	mu    sync.Mutex
	todos []models.Todo
	saved bool
	saves int
}

// NewMemoryPersister returns an empty MemoryPersister.
// If seed is non-nil it becomes the initial snapshot.
func NewMemoryPersister(seed []models.Todo) *MemoryPersister {
	p := &MemoryPersister{}
	if seed != nil {
		p.todos = append([]models.Todo{}, seed...)
		p.saved = true
	}
	return p
}

// Load returns a copy of the snapshot, or ErrNoSnapshot if never saved.
func (p *MemoryPersister) Load(ctx context.Context) ([]models.Todo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.saved {
		return nil, ErrNoSnapshot
	}
	return append([]models.Todo{}, p.todos...), nil
}

// Save stores a copy of todos.
func (p *MemoryPersister) Save(ctx context.Context, todos []models.Todo) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.todos = append([]models.Todo{}, todos...)
	p.saved = true
	p.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (p *MemoryPersister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}
