// Package repository declares the storage contracts the services depend on.
//
// Each backend (sqlite, postgres, mongo) implements these interfaces. The
// services never see SQL, BSON or driver errors: backends translate "no row"
// into apperror.ErrNotFound and unique-index violations into
// apperror.ErrConflict before returning.
package repository

import (
	"context"

	"github.com/sakif/todolist/internal/model"
)

// UserRepository persists accounts.
type UserRepository interface {
	// Create assigns ID and timestamps and inserts the user. A duplicate
	// email returns an error wrapping apperror.ErrConflict.
	Create(ctx context.Context, user *model.User) error
	// GetByEmail matches the email exactly as stored.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// TodoRepository persists todos. Every by-id method takes the owner and
// matches on id AND owner in a single predicate, so a todo that belongs to
// someone else is indistinguishable from one that does not exist.
type TodoRepository interface {
	// ListByOwner returns the owner's todos oldest first. Never nil.
	ListByOwner(ctx context.Context, owner string) ([]model.Todo, error)
	Create(ctx context.Context, todo *model.Todo) error
	GetOwned(ctx context.Context, owner, id string) (*model.Todo, error)
	// UpdateOwned applies the present fields of patch and returns the stored
	// record. UpdatedAt moves only when a value actually changed.
	UpdateOwned(ctx context.Context, owner, id string, patch model.TodoPatch) (*model.Todo, error)
	DeleteOwned(ctx context.Context, owner, id string) error
}

// Store is one opened backend.
type Store interface {
	Users() UserRepository
	Todos() TodoRepository
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}
