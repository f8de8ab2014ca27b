package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/todolist/internal/apperror"
	"github.com/sakif/todolist/internal/model"
	"github.com/sakif/todolist/internal/repository"
)

// TodoRepository is the todos table. Single-todo statements always filter
// on id AND user_id together.
type TodoRepository struct {
	db DBTX
}

var _ repository.TodoRepository = (*TodoRepository)(nil)

func NewTodoRepository(db DBTX) *TodoRepository {
	return &TodoRepository{db: db}
}

const todoColumns = `id, user_id, title, description, is_completed, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*model.Todo, error) {
	t := &model.Todo{}
	if err := row.Scan(&t.ID, &t.Owner, &t.Title, &t.Description, &t.IsCompleted, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TodoRepository) ListByOwner(ctx context.Context, owner string) ([]model.Todo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+todoColumns+`
		 FROM todos
		 WHERE user_id = $1
		 ORDER BY created_at ASC, id ASC`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing todos: %w", err)
	}
	defer rows.Close()

	todos := make([]model.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning todo row: %w", err)
		}
		todos = append(todos, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating todo rows: %w", err)
	}
	return todos, nil
}

func (r *TodoRepository) Create(ctx context.Context, todo *model.Todo) error {
	now := time.Now().UTC()
	todo.ID = xid.New().String()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO todos (`+todoColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		todo.ID, todo.Owner, todo.Title, todo.Description, todo.IsCompleted, todo.CreatedAt, todo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating todo: %w", err)
	}
	return nil
}

func (r *TodoRepository) GetOwned(ctx context.Context, owner, id string) (*model.Todo, error) {
	t, err := scanTodo(r.db.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = $1 AND user_id = $2`,
		id, owner,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("todo", id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: getting todo %s: %w", id, err)
	}
	return t, nil
}

// UpdateOwned is one statement: COALESCE keeps absent fields, and the CASE
// leaves updated_at alone unless some present field differs from the stored
// value. Every expression on the right of SET sees the pre-update row.
func (r *TodoRepository) UpdateOwned(ctx context.Context, owner, id string, patch model.TodoPatch) (*model.Todo, error) {
	t, err := scanTodo(r.db.QueryRowContext(ctx,
		`UPDATE todos SET
		     title        = COALESCE($1::text, title),
		     description  = COALESCE($2::text, description),
		     is_completed = COALESCE($3::boolean, is_completed),
		     updated_at   = CASE
		         WHEN ($1::text IS NULL OR $1::text = title)
		          AND ($2::text IS NULL OR $2::text = description)
		          AND ($3::boolean IS NULL OR $3::boolean = is_completed)
		         THEN updated_at
		         ELSE now()
		     END
		 WHERE id = $4 AND user_id = $5
		 RETURNING `+todoColumns,
		patch.Title, patch.Description, patch.IsCompleted, id, owner,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("todo", id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: updating todo %s: %w", id, err)
	}
	return t, nil
}

func (r *TodoRepository) DeleteOwned(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM todos WHERE id = $1 AND user_id = $2`,
		id, owner,
	)
	if err != nil {
		return fmt.Errorf("postgres: deleting todo %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("todo", id)
	}
	return nil
}
