// Package store owns the todo collection and its durable mirror.
//
// All mutations run inside one critical section that covers the
// read-modify-write of the collection and the full rewrite of the snapshot,
// so the persisted snapshot is always a complete collection and concurrent
// writers cannot lose each other's updates. Reads share the lock and never
// observe a collection mid-mutation.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fluxorio/todolist/pkg/core"
	"github.com/fluxorio/todolist/pkg/core/failfast"
	"github.com/fluxorio/todolist/pkg/models"
	"github.com/google/uuid"
)

// Persister is the durable mirror of the collection.
type Persister interface {
	// Load returns the last saved snapshot, or ErrNoSnapshot if none exists.
	Load(ctx context.Context) ([]models.Todo, error)
	// Save replaces the snapshot with todos.
	Save(ctx context.Context, todos []models.Todo) error
}

// EventType names a kind of mutation.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// Event describes a committed mutation.
// For EventDeleted, Todo is the record as it was before removal.
type Event struct {
	Type  EventType   `json:"type"`
	Todo  models.Todo `json:"todo"`
	Count int         `json:"count"`
}

// Observer is notified after every committed mutation, in commit order.
// ctx is the context of the mutating call. Observers run while the store
// lock is held and must not call back into the Store.
type Observer func(ctx context.Context, e Event)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l core.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithPolicy sets the persist policy. The default is BestEffort.
func WithPolicy(p PersistPolicy) Option {
	return func(s *Store) { s.policy = p }
}

// WithIDGenerator replaces the uuid based id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithObserver registers an observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observers = append(s.observers, o) }
}

// Store is the authoritative, ordered todo collection.
type Store struct {
	mu        sync.RWMutex
	todos     []models.Todo
	persister Persister
	policy    PersistPolicy
	newID     func() string
	observers []Observer
	logger    core.Logger
}

// New builds a Store and loads the persisted snapshot.
//
// A missing snapshot starts an empty collection. An unreadable or invalid
// snapshot is logged and also starts empty; the snapshot itself is left as is
// until the next mutation overwrites it.
func New(ctx context.Context, p Persister, opts ...Option) *Store {
	failfast.NotNil(p, "persister")

	s := &Store{
		persister: p,
		policy:    BestEffort,
		newID:     uuid.NewString,
		logger:    core.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	failfast.NotNil(s.newID, "id generator")
	failfast.NotNil(s.logger, "logger")

	s.todos = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) []models.Todo {
	log := s.logger.WithContext(ctx)

	todos, err := s.persister.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		log.Info("no persisted todos found, starting empty")
		return []models.Todo{}
	}
	if err != nil {
		log.Errorf("failed to load todos, starting empty: %v", err)
		return []models.Todo{}
	}
	if err := validateSnapshot(todos); err != nil {
		log.Errorf("persisted todos are invalid, starting empty: %v", err)
		return []models.Todo{}
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	log.Infof("loaded %d todos", len(todos))
	return todos
}

func validateSnapshot(todos []models.Todo) error {
	seen := make(map[string]struct{}, len(todos))
	for i, t := range todos {
		if t.ID == "" {
			return fmt.Errorf("record %d has an empty id", i)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("duplicate id %q", t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

// List returns a copy of all todos in collection order.
func (s *Store) List(ctx context.Context) []models.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Todo, len(s.todos))
	copy(out, s.todos)
	return out
}

// Get returns the todo with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Todo{}, ErrNotFound
	}
	return s.todos[i], nil
}

// Len returns the number of todos.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.todos)
}

// Create assigns a fresh id to d, appends it and persists the collection.
func (s *Store) Create(ctx context.Context, d models.Draft) (models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for id == "" || s.indexOf(id) >= 0 {
		id = s.newID()
	}
	todo := models.NewTodo(id, d)

	next := make([]models.Todo, len(s.todos), len(s.todos)+1)
	copy(next, s.todos)
	next = append(next, todo)

	if err := s.commit(ctx, "create", next); err != nil {
		return models.Todo{}, err
	}
	s.logger.WithContext(ctx).Debugf("created todo %s", id)
	s.notify(ctx, Event{Type: EventCreated, Todo: todo, Count: len(next)})
	return todo, nil
}

// Update applies p to the todo with the given id and persists the collection.
func (s *Store) Update(ctx context.Context, id string, p models.Patch) (models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Todo{}, ErrNotFound
	}
	updated := models.Apply(s.todos[i], p)

	next := make([]models.Todo, len(s.todos))
	copy(next, s.todos)
	next[i] = updated

	if err := s.commit(ctx, "update", next); err != nil {
		return models.Todo{}, err
	}
	s.logger.WithContext(ctx).Debugf("updated todo %s", id)
	s.notify(ctx, Event{Type: EventUpdated, Todo: updated, Count: len(next)})
	return updated, nil
}

// Delete removes the todo with the given id and persists the collection.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	removed := s.todos[i]

	next := make([]models.Todo, 0, len(s.todos)-1)
	next = append(next, s.todos[:i]...)
	next = append(next, s.todos[i+1:]...)

	if err := s.commit(ctx, "delete", next); err != nil {
		return err
	}
	s.logger.WithContext(ctx).Debugf("deleted todo %s", id)
	s.notify(ctx, Event{Type: EventDeleted, Todo: removed, Count: len(next)})
	return nil
}

// Close releases the persister if it holds resources.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.persister.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// commit persists next and installs it. Caller holds s.mu.
func (s *Store) commit(ctx context.Context, op string, next []models.Todo) error {
	// Persistence is not cancellable once the mutation has started.
	if err := s.persister.Save(context.WithoutCancel(ctx), next); err != nil {
		perr := &PersistenceError{Op: op, Err: err}
		if s.policy == Strict {
			s.logger.WithContext(ctx).Errorf("%v (rolled back)", perr)
			return perr
		}
		s.logger.WithContext(ctx).Errorf("%v (in-memory change kept)", perr)
	}
	s.todos = next
	return nil
}

func (s *Store) notify(ctx context.Context, e Event) {
	for _, o := range s.observers {
		s.safeNotify(ctx, o, e)
	}
}

func (s *Store) safeNotify(ctx context.Context, o Observer, e Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("todo observer panicked on %s event: %v", e.Type, r)
		}
	}()
	o(ctx, e)
}

func (s *Store) indexOf(id string) int {
	for i := range s.todos {
		if s.todos[i].ID == id {
			return i
		}
	}
	return -1
}
