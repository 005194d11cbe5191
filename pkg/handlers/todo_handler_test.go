package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fluxorio/todolist/pkg/core"
	"github.com/fluxorio/todolist/pkg/models"
	"github.com/fluxorio/todolist/pkg/store"
	"github.com/fluxorio/todolist/pkg/web"
	"github.com/valyala/fasthttp"
)

// mockTodoStore records the last call and returns canned results
type mockTodoStore struct {
	todos     []models.Todo
	err       error
	lastID    string
	lastDraft models.Draft
	lastPatch models.Patch
	calls     int
}

func (m *mockTodoStore) List(ctx context.Context) []models.Todo {
	m.calls++
	return m.todos
}

func (m *mockTodoStore) Get(ctx context.Context, id string) (models.Todo, error) {
	m.calls++
	m.lastID = id
	if m.err != nil {
		return models.Todo{}, m.err
	}
	return models.Todo{ID: id, Title: "t"}, nil
}

func (m *mockTodoStore) Create(ctx context.Context, d models.Draft) (models.Todo, error) {
	m.calls++
	m.lastDraft = d
	if m.err != nil {
		return models.Todo{}, m.err
	}
	return models.NewTodo("new-id", d), nil
}

func (m *mockTodoStore) Update(ctx context.Context, id string, p models.Patch) (models.Todo, error) {
	m.calls++
	m.lastID = id
	m.lastPatch = p
	if m.err != nil {
		return models.Todo{}, m.err
	}
	return models.Apply(models.Todo{ID: id}, p), nil
}

func (m *mockTodoStore) Delete(ctx context.Context, id string) error {
	m.calls++
	m.lastID = id
	return m.err
}

func newRequest(method, body string, params map[string]string) (*fasthttp.RequestCtx, *web.FastRequestContext) {
	rc := &fasthttp.RequestCtx{}
	rc.Request.Header.SetMethod(method)
	rc.Request.SetRequestURI("/todos")
	if body != "" {
		rc.Request.SetBodyString(body)
	}
	ctx := web.NewFastRequestContext(rc, nil, "test-req")
	for k, v := range params {
		ctx.Params[k] = v
	}
	return rc, ctx
}

func TestTodoHandler_ListTodos(t *testing.T) {
	h := NewTodoHandler(&mockTodoStore{todos: []models.Todo{}})
	rc, ctx := newRequest("GET", "", nil)

	if err := h.ListTodos(ctx); err != nil {
		t.Fatal(err)
	}
	if rc.Response.StatusCode() != 200 || string(rc.Response.Body()) != "[]" {
		t.Errorf("ListTodos() = %d %s", rc.Response.StatusCode(), rc.Response.Body())
	}
}

func TestTodoHandler_GetTodo(t *testing.T) {
	m := &mockTodoStore{}
	h := NewTodoHandler(m)

	rc, ctx := newRequest("GET", "", map[string]string{"id": "abc"})
	if err := h.GetTodo(ctx); err != nil {
		t.Fatal(err)
	}
	if rc.Response.StatusCode() != 200 || m.lastID != "abc" {
		t.Errorf("GetTodo() = %d, id %q", rc.Response.StatusCode(), m.lastID)
	}

	m.err = store.ErrNotFound
	rc, ctx = newRequest("GET", "", map[string]string{"id": "missing"})
	if err := h.GetTodo(ctx); err != nil {
		t.Fatal(err)
	}
	if rc.Response.StatusCode() != 404 || len(rc.Response.Body()) != 0 {
		t.Errorf("GetTodo(missing) = %d %q, want 404 empty", rc.Response.StatusCode(), rc.Response.Body())
	}
}

func TestTodoHandler_CreateTodo(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDraft  models.Draft
	}{
		{
			name:       "title and description",
			body:       `{"title":"Buy milk","description":"2%"}`,
			wantStatus: 201,
			wantDraft:  models.Draft{Title: "Buy milk", Description: "2%"},
		},
		{
			name:       "completed and unknown fields",
			body:       `{"title":"x","completed":true,"id":"client-id","priority":3}`,
			wantStatus: 201,
			wantDraft:  models.Draft{Title: "x", Completed: models.Bool(true)},
		},
		{name: "empty object", body: `{}`, wantStatus: 201},
		{name: "null title", body: `{"title":null}`, wantStatus: 201},
		{name: "malformed", body: `{"title":`, wantStatus: 400},
		{name: "array", body: `[]`, wantStatus: 400},
		{name: "null document", body: `null`, wantStatus: 400},
		{name: "empty body", body: ``, wantStatus: 400},
		{name: "title not a string", body: `{"title":5}`, wantStatus: 400},
		{name: "completed not a bool", body: `{"completed":"yes"}`, wantStatus: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockTodoStore{}
			h := NewTodoHandler(m)
			rc, ctx := newRequest("POST", tt.body, nil)

			if err := h.CreateTodo(ctx); err != nil {
				t.Fatal(err)
			}
			if rc.Response.StatusCode() != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rc.Response.StatusCode(), tt.wantStatus, rc.Response.Body())
			}
			if tt.wantStatus == 400 {
				if m.calls != 0 {
					t.Error("store called for malformed input")
				}
				if !strings.HasPrefix(string(rc.Response.Body()), `{"error":`) {
					t.Errorf("400 body = %s", rc.Response.Body())
				}
				return
			}

			got := m.lastDraft
			if got.Title != tt.wantDraft.Title || got.Description != tt.wantDraft.Description {
				t.Errorf("draft = %+v, want %+v", got, tt.wantDraft)
			}
			if (got.Completed == nil) != (tt.wantDraft.Completed == nil) {
				t.Errorf("draft.Completed = %v, want %v", got.Completed, tt.wantDraft.Completed)
			}
			if !strings.Contains(string(rc.Response.Body()), `"id":"new-id"`) {
				t.Errorf("body = %s", rc.Response.Body())
			}
		})
	}
}

func TestTodoHandler_UpdateTodo(t *testing.T) {
	m := &mockTodoStore{}
	h := NewTodoHandler(m)

	rc, ctx := newRequest("PUT", `{"completed":true,"title":null}`, map[string]string{"id": "abc"})
	if err := h.UpdateTodo(ctx); err != nil {
		t.Fatal(err)
	}
	if rc.Response.StatusCode() != 200 {
		t.Fatalf("status = %d", rc.Response.StatusCode())
	}
	if m.lastPatch.Completed == nil || !*m.lastPatch.Completed || m.lastPatch.Title != nil || m.lastPatch.Description != nil {
		t.Errorf("patch = %+v", m.lastPatch)
	}

	// "" is a value and clears the field, unlike null
	_, ctx = newRequest("PUT", `{"description":""}`, map[string]string{"id": "abc"})
	if err := h.UpdateTodo(ctx); err != nil {
		t.Fatal(err)
	}
	if m.lastPatch.Description == nil || *m.lastPatch.Description != "" || m.lastPatch.Title != nil {
		t.Errorf("empty string patch = %+v", m.lastPatch)
	}

	// body is validated before the lookup
	m.err = store.ErrNotFound
	m.calls = 0
	rc, ctx = newRequest("PUT", `{"completed":"yes"}`, map[string]string{"id": "missing"})
	_ = h.UpdateTodo(ctx)
	if rc.Response.StatusCode() != 400 || m.calls != 0 {
		t.Errorf("bad body on missing id = %d (calls %d), want 400", rc.Response.StatusCode(), m.calls)
	}

	rc, ctx = newRequest("PUT", `{"completed":true}`, map[string]string{"id": "missing"})
	_ = h.UpdateTodo(ctx)
	if rc.Response.StatusCode() != 404 {
		t.Errorf("missing id = %d, want 404", rc.Response.StatusCode())
	}
}

func TestTodoHandler_DeleteTodo(t *testing.T) {
	m := &mockTodoStore{}
	h := NewTodoHandler(m)

	rc, ctx := newRequest("DELETE", "", map[string]string{"id": "abc"})
	if err := h.DeleteTodo(ctx); err != nil {
		t.Fatal(err)
	}
	if rc.Response.StatusCode() != 204 || len(rc.Response.Body()) != 0 {
		t.Errorf("DeleteTodo() = %d %q", rc.Response.StatusCode(), rc.Response.Body())
	}

	m.err = store.ErrNotFound
	rc, ctx = newRequest("DELETE", "", map[string]string{"id": "abc"})
	_ = h.DeleteTodo(ctx)
	if rc.Response.StatusCode() != 404 {
		t.Errorf("DeleteTodo(missing) = %d, want 404", rc.Response.StatusCode())
	}
}

func TestTodoHandler_UnexpectedErrorIs500(t *testing.T) {
	m := &mockTodoStore{err: &store.PersistenceError{Op: "create", Err: errors.New("disk full")}}
	h := NewTodoHandler(m)

	rc, ctx := newRequest("POST", `{"title":"x"}`, nil)
	if err := h.CreateTodo(ctx); err != nil {
		t.Fatal(err)
	}
	if rc.Response.StatusCode() != 500 {
		t.Fatalf("status = %d, want 500", rc.Response.StatusCode())
	}
	var body map[string]string
	if err := core.JSONDecode(rc.Response.Body(), &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != "persist todos after create: disk full" {
		t.Errorf("error message = %q", body["error"])
	}
}

func TestHealthHandler(t *testing.T) {
	ready := true
	h := NewHealthHandler(func() bool { return ready })

	rc, ctx := newRequest("GET", "", nil)
	_ = h.Health(ctx)
	if string(rc.Response.Body()) != `{"status":"UP"}` {
		t.Errorf("Health() = %s", rc.Response.Body())
	}

	ready = false
	rc, ctx = newRequest("GET", "", nil)
	_ = h.Ready(ctx)
	if rc.Response.StatusCode() != 503 {
		t.Errorf("Ready() = %d, want 503", rc.Response.StatusCode())
	}
}
