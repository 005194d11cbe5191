// Package models holds the todo record and the value types used to create
// and partially update it.
package models

// Todo represents a todo item
type Todo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Draft is a todo without an id, as submitted for creation.
// A nil Completed means the caller did not supply it.
type Draft struct {
	Title       string
	Description string
	Completed   *bool
}

// Patch is a partial update. Nil fields leave the stored value unchanged.
type Patch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// Apply returns existing with the fields present in p replaced.
// The id is never touched.
func Apply(existing Todo, p Patch) Todo {
	updated := existing
	if p.Title != nil {
		updated.Title = *p.Title
	}
	if p.Description != nil {
		updated.Description = *p.Description
	}
	if p.Completed != nil {
		updated.Completed = *p.Completed
	}
	return updated
}

// NewTodo builds the record stored for d under id.
func NewTodo(id string, d Draft) Todo {
	t := Todo{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
	}
	if d.Completed != nil {
		t.Completed = *d.Completed
	}
	return t
}

// String returns a pointer to s, for building patches.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for building drafts and patches.
func Bool(b bool) *bool { return &b }
