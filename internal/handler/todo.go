package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/todolist/internal/apperror"
	"github.com/sakif/todolist/internal/auth"
	"github.com/sakif/todolist/internal/model"
)

// TodoService is what TodoHandler needs from service.TodoService.
type TodoService interface {
	List(ctx context.Context, id model.Identity) ([]model.Todo, error)
	Create(ctx context.Context, id model.Identity, title, description string) (*model.Todo, error)
	Get(ctx context.Context, id model.Identity, todoID string) (*model.Todo, error)
	Update(ctx context.Context, id model.Identity, todoID string, patch model.TodoPatch) (*model.Todo, error)
	Delete(ctx context.Context, id model.Identity, todoID string) error
}

// idParam names the query parameter that addresses a single todo. The
// browser client has always called it mongoId, whatever the backend.
const idParam = "mongoId"

const todoNotFound = "Todo not found"

// TodoHandler serves the todo API mounted at /api.
//
// Handlers read the caller from the request context (put there by
// auth.Authenticate) and pass it to the service explicitly.
type TodoHandler struct {
	todos  TodoService
	logger *slog.Logger
}

func NewTodoHandler(todos TodoService, logger *slog.Logger) *TodoHandler {
	return &TodoHandler{todos: todos, logger: logger}
}

type createTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ListResponse is the body of GET /api.
type ListResponse struct {
	Todos []model.Todo `json:"todos"`
}

// TodoResponse wraps a single todo.
type TodoResponse struct {
	Msg  string      `json:"msg,omitempty"`
	Todo *model.Todo `json:"todo"`
}

// HandleGet handles GET /api. Without mongoId it lists the caller's todos
// (an empty list for anonymous callers); with mongoId it fetches one.
func (h *TodoHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())

	if todoID := r.URL.Query().Get(idParam); todoID != "" {
		todo, err := h.todos.Get(r.Context(), id, todoID)
		if err != nil {
			writeError(w, r, h.logger, err, errorText{NotFound: todoNotFound, Internal: "Error fetching todo"})
			return
		}
		writeJSON(w, http.StatusOK, TodoResponse{Todo: todo})
		return
	}

	todos, err := h.todos.List(r.Context(), id)
	if err != nil {
		// Listing degrades to an empty list; the page stays usable.
		h.logger.Error("listing todos", slog.String("userID", id.UserID), slog.String("error", err.Error()))
		todos = []model.Todo{}
	}
	writeJSON(w, http.StatusOK, ListResponse{Todos: todos})
}

// HandleCreate handles POST /api.
func (h *TodoHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if !id.Authenticated() {
		// Checked before the body so anonymous callers get 401, not 400.
		writeError(w, r, h.logger, apperror.Unauthorized(), errorText{})
		return
	}

	var req createTodoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	todo, err := h.todos.Create(r.Context(), id, req.Title, req.Description)
	if err != nil {
		writeError(w, r, h.logger, err, errorText{Internal: "Error creating todo"})
		return
	}
	writeJSON(w, http.StatusOK, TodoResponse{Msg: "Todo Created", Todo: todo})
}

// HandleUpdate handles PUT /api?mongoId=ID. Only keys present in the body
// are applied.
func (h *TodoHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if !id.Authenticated() {
		writeError(w, r, h.logger, apperror.Unauthorized(), errorText{})
		return
	}

	// An empty body is an empty patch.
	var patch model.TodoPatch
	if err := decodeJSON(w, r, &patch); err != nil && !errors.Is(err, io.EOF) {
		writeBadJSON(w)
		return
	}

	todo, err := h.todos.Update(r.Context(), id, r.URL.Query().Get(idParam), patch)
	if err != nil {
		writeError(w, r, h.logger, err, errorText{NotFound: todoNotFound, Internal: "Error updating todo"})
		return
	}
	writeJSON(w, http.StatusOK, TodoResponse{Msg: "Todo Updated", Todo: todo})
}

// HandleDelete handles DELETE /api?mongoId=ID.
func (h *TodoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())

	if err := h.todos.Delete(r.Context(), id, r.URL.Query().Get(idParam)); err != nil {
		writeError(w, r, h.logger, err, errorText{NotFound: todoNotFound, Internal: "Error deleting todo"})
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Msg: "Todo Deleted"})
}
