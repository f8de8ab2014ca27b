package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/todolist/internal/apperror"
	"github.com/sakif/todolist/internal/model"
	"github.com/sakif/todolist/internal/repository"
)

// TodoService applies the ownership rules to todo operations.
//
// Anonymous callers get an empty List and Unauthorized from everything else.
// Ownership itself is enforced by the repository's id-AND-owner predicate;
// this layer only decides who the owner is.
type TodoService struct {
	repo   repository.TodoRepository
	logger *slog.Logger
}

func NewTodoService(repo repository.TodoRepository, logger *slog.Logger) *TodoService {
	return &TodoService{repo: repo, logger: logger}
}

// List returns the caller's todos, or an empty slice for anonymous callers.
func (s *TodoService) List(ctx context.Context, id model.Identity) ([]model.Todo, error) {
	if !id.Authenticated() {
		return []model.Todo{}, nil
	}
	todos, err := s.repo.ListByOwner(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	return todos, nil
}

// Create adds a todo owned by the caller. The title is trimmed and must not
// be blank; description may be empty.
func (s *TodoService) Create(ctx context.Context, id model.Identity, title, description string) (*model.Todo, error) {
	if !id.Authenticated() {
		return nil, apperror.Unauthorized()
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}

	todo := &model.Todo{
		Owner:       id.UserID,
		Title:       title,
		Description: description,
		IsCompleted: false,
	}
	if err := s.repo.Create(ctx, todo); err != nil {
		s.logger.Error("failed to create todo",
			slog.String("userID", id.UserID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating todo: %w", err)
	}

	s.logger.Info("todo created", slog.String("id", todo.ID), slog.String("userID", id.UserID))
	return todo, nil
}

// Get fetches one of the caller's todos.
func (s *TodoService) Get(ctx context.Context, id model.Identity, todoID string) (*model.Todo, error) {
	if !id.Authenticated() {
		return nil, apperror.Unauthorized()
	}
	todoID = strings.TrimSpace(todoID)
	if todoID == "" {
		return nil, apperror.NotFound("todo", todoID)
	}
	return s.repo.GetOwned(ctx, id.UserID, todoID)
}

// Update applies patch to one of the caller's todos.
//
// A present title must not be blank; a present description may be empty.
// An empty patch changes nothing but still reports NotFound for todos the
// caller does not own.
func (s *TodoService) Update(ctx context.Context, id model.Identity, todoID string, patch model.TodoPatch) (*model.Todo, error) {
	if !id.Authenticated() {
		return nil, apperror.Unauthorized()
	}
	todoID = strings.TrimSpace(todoID)
	if todoID == "" {
		return nil, apperror.NotFound("todo", todoID)
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "title must not be empty")
		}
		patch.Title = &title
	}

	if patch.IsEmpty() {
		return s.repo.GetOwned(ctx, id.UserID, todoID)
	}

	todo, err := s.repo.UpdateOwned(ctx, id.UserID, todoID, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("todo updated", slog.String("id", todo.ID), slog.String("userID", id.UserID))
	return todo, nil
}

// Delete removes one of the caller's todos permanently.
func (s *TodoService) Delete(ctx context.Context, id model.Identity, todoID string) error {
	if !id.Authenticated() {
		return apperror.Unauthorized()
	}
	todoID = strings.TrimSpace(todoID)
	if todoID == "" {
		return apperror.NotFound("todo", todoID)
	}

	if err := s.repo.DeleteOwned(ctx, id.UserID, todoID); err != nil {
		return err
	}

	s.logger.Info("todo deleted", slog.String("id", todoID), slog.String("userID", id.UserID))
	return nil
}
