package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fluxorio/todolist/pkg/core"
	"github.com/fluxorio/todolist/pkg/models"
)

// DefaultFile is the snapshot file used when none is configured.
const DefaultFile = "todos.json"

// JSONFilePersister keeps the collection as an indented JSON array in one file.
// Every Save rewrites the whole file through a temp file and rename, so
// readers never see a partial document.
type JSONFilePersister struct {
	path string
	mu   sync.Mutex
}

// NewJSONFilePersister returns a persister for path (DefaultFile if empty).
func NewJSONFilePersister(path string) *JSONFilePersister {
	if path == "" {
		path = DefaultFile
	}
	return &JSONFilePersister{path: path}
}

// Path returns the snapshot file path.
func (p *JSONFilePersister) Path() string {
	return p.path
}

// Load reads the snapshot. A missing file yields ErrNoSnapshot, a literal
// null document an empty collection.
func (p *JSONFilePersister) Load(ctx context.Context) ([]models.Todo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("read %s: %w", p.path, err)
	}

	var todos []models.Todo
	if err := core.JSONDecode(data, &todos); err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.path, err)
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	return todos, nil
}

// Save atomically replaces the file with todos.
func (p *JSONFilePersister) Save(ctx context.Context, todos []models.Todo) error {
	if todos == nil {
		todos = []models.Todo{}
	}
	data, err := core.JSONEncodeIndent(todos)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	p.mu.Lock()
	defer p.mu.Unlock()
	return writeFileAtomic(p.path, data, 0o644)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
