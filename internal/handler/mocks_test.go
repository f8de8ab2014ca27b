package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/todolist/internal/auth"
	"github.com/sakif/todolist/internal/model"
	"github.com/sakif/todolist/internal/service"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// MockIdentity implements handler.IdentityService.
type MockIdentity struct {
	RegisterErr error
	AuthResult  *service.AuthResult
	AuthErr     error
	Users       map[string]*model.UserSummary // keyed by user id, for Whoami

	CapturedName, CapturedEmail, CapturedPassword string
}

func (m *MockIdentity) Register(ctx context.Context, name, email, password string) (*model.UserSummary, error) {
	m.CapturedName, m.CapturedEmail, m.CapturedPassword = name, email, password
	if m.RegisterErr != nil {
		return nil, m.RegisterErr
	}
	return &model.UserSummary{Name: name, Email: email}, nil
}

func (m *MockIdentity) Authenticate(ctx context.Context, email, password string) (*service.AuthResult, error) {
	m.CapturedEmail, m.CapturedPassword = email, password
	if m.AuthErr != nil {
		return nil, m.AuthErr
	}
	return m.AuthResult, nil
}

func (m *MockIdentity) Whoami(ctx context.Context, id model.Identity) (*model.UserSummary, bool) {
	u, ok := m.Users[id.UserID]
	return u, ok
}

// MockTodos implements handler.TodoService.
type MockTodos struct {
	Todos   []model.Todo
	Todo    *model.Todo
	Err     error
	ListErr error

	CapturedID     model.Identity
	CapturedTodoID string
	CapturedTitle  string
	CapturedPatch  model.TodoPatch
	Calls          int
}

func (m *MockTodos) List(ctx context.Context, id model.Identity) ([]model.Todo, error) {
	m.Calls++
	m.CapturedID = id
	return m.Todos, m.ListErr
}

func (m *MockTodos) Create(ctx context.Context, id model.Identity, title, description string) (*model.Todo, error) {
	m.Calls++
	m.CapturedID, m.CapturedTitle = id, title
	return m.Todo, m.Err
}

func (m *MockTodos) Get(ctx context.Context, id model.Identity, todoID string) (*model.Todo, error) {
	m.Calls++
	m.CapturedID, m.CapturedTodoID = id, todoID
	return m.Todo, m.Err
}

func (m *MockTodos) Update(ctx context.Context, id model.Identity, todoID string, patch model.TodoPatch) (*model.Todo, error) {
	m.Calls++
	m.CapturedID, m.CapturedTodoID, m.CapturedPatch = id, todoID, patch
	return m.Todo, m.Err
}

func (m *MockTodos) Delete(ctx context.Context, id model.Identity, todoID string) error {
	m.Calls++
	m.CapturedID, m.CapturedTodoID = id, todoID
	return m.Err
}

// as attaches an identity to the request the way auth.Authenticate would.
func as(r *http.Request, userID string) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), model.Identity{UserID: userID}))
}
