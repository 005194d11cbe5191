// Package handlers translates HTTP requests into todo store operations and
// store outcomes into HTTP responses.
package handlers

import (
	"context"
	"errors"

	"github.com/fluxorio/todolist/pkg/core/failfast"
	"github.com/fluxorio/todolist/pkg/models"
	"github.com/fluxorio/todolist/pkg/store"
	"github.com/fluxorio/todolist/pkg/web"
	"github.com/valyala/fasthttp"
)

// TodoStore defines the store operations the handler needs
type TodoStore interface {
	List(ctx context.Context) []models.Todo
	Get(ctx context.Context, id string) (models.Todo, error)
	Create(ctx context.Context, d models.Draft) (models.Todo, error)
	Update(ctx context.Context, id string, p models.Patch) (models.Todo, error)
	Delete(ctx context.Context, id string) error
}

// TodoHandler handles todo-related requests
type TodoHandler struct {
	store TodoStore
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(s TodoStore) *TodoHandler {
	failfast.NotNil(s, "todo store")
	return &TodoHandler{store: s}
}

// RegisterRoutes mounts the todo routes on r
func (h *TodoHandler) RegisterRoutes(r *web.Router) {
	r.GETFast("/todos", h.ListTodos)
	r.GETFast("/todos/:id", h.GetTodo)
	r.POSTFast("/todos", h.CreateTodo)
	r.PUTFast("/todos/:id", h.UpdateTodo)
	r.DELETEFast("/todos/:id", h.DeleteTodo)
}

// ListTodos handles GET /todos
func (h *TodoHandler) ListTodos(ctx *web.FastRequestContext) error {
	return ctx.JSON(fasthttp.StatusOK, h.store.List(ctx.Context()))
}

// GetTodo handles GET /todos/:id
func (h *TodoHandler) GetTodo(ctx *web.FastRequestContext) error {
	todo, err := h.store.Get(ctx.Context(), ctx.Param("id"))
	if err != nil {
		return h.fail(ctx, err)
	}
	return ctx.JSON(fasthttp.StatusOK, todo)
}

// CreateTodo handles POST /todos
func (h *TodoHandler) CreateTodo(ctx *web.FastRequestContext) error {
	draft, err := decodeDraft(ctx.Body())
	if err != nil {
		return h.fail(ctx, err)
	}

	todo, err := h.store.Create(ctx.Context(), draft)
	if err != nil {
		return h.fail(ctx, err)
	}
	return ctx.JSON(fasthttp.StatusCreated, todo)
}

// UpdateTodo handles PUT /todos/:id. The body is validated before the id is
// looked up.
func (h *TodoHandler) UpdateTodo(ctx *web.FastRequestContext) error {
	patch, err := decodePatch(ctx.Body())
	if err != nil {
		return h.fail(ctx, err)
	}

	todo, err := h.store.Update(ctx.Context(), ctx.Param("id"), patch)
	if err != nil {
		return h.fail(ctx, err)
	}
	return ctx.JSON(fasthttp.StatusOK, todo)
}

// DeleteTodo handles DELETE /todos/:id
func (h *TodoHandler) DeleteTodo(ctx *web.FastRequestContext) error {
	if err := h.store.Delete(ctx.Context(), ctx.Param("id")); err != nil {
		return h.fail(ctx, err)
	}
	ctx.NoContent(fasthttp.StatusNoContent)
	return nil
}

// fail is the only place store outcomes become status codes.
func (h *TodoHandler) fail(ctx *web.FastRequestContext, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		ctx.NoContent(fasthttp.StatusNotFound)
		return nil
	case errors.Is(err, store.ErrMalformedInput):
		ctx.Logger().Warnf("rejected %s %s: %v", ctx.Method(), ctx.Path(), err)
		return ctx.ErrorJSON(fasthttp.StatusBadRequest, err.Error())
	default:
		ctx.Logger().Errorf("%s %s failed: %v", ctx.Method(), ctx.Path(), err)
		return ctx.ErrorJSON(fasthttp.StatusInternalServerError, err.Error())
	}
}
