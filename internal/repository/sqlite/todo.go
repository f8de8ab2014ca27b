package sqlite

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

// TodoDB is the todos table.
//
// OWNERSHIP:
// Every statement that addresses a single todo carries
// `WHERE id = ? AND user_id = ?`. There is no "load by id, then compare the
// owner" step anywhere, so no code path can forget the comparison.
type TodoDB struct {
	conn *sql.DB
}

var _ repository.TodoRepository = (*TodoDB)(nil)

const todoColumns = `id, user_id, title, description, is_completed, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*model.Todo, error) {
	var t model.Todo
	err := row.Scan(
		&t.ID,
		&t.Owner,
		&t.Title,
		&t.Description,
		&t.IsCompleted,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByOwner returns the owner's todos in creation order.
func (d *TodoDB) ListByOwner(ctx context.Context, owner string) ([]model.Todo, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT `+todoColumns+`
		 FROM todos
		 WHERE user_id = ?
		 ORDER BY created_at ASC, rowid ASC`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing todos: %w", err)
	}
	defer rows.Close()

	// Start non-nil so an empty list encodes as [] rather than null.
	todos := make([]model.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning todo row: %w", err)
		}
		todos = append(todos, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating todo rows: %w", err)
	}
	return todos, nil
}

// Create inserts todo, assigning ID and timestamps in place.
func (d *TodoDB) Create(ctx context.Context, todo *model.Todo) error {
	now := time.Now().UTC()
	todo.ID = xid.New().String()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO todos (`+todoColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		todo.ID,
		todo.Owner,
		todo.Title,
		todo.Description,
		todo.IsCompleted,
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating todo: %w", err)
	}
	return nil
}

// GetOwned fetches one todo that belongs to owner.
func (d *TodoDB) GetOwned(ctx context.Context, owner, id string) (*model.Todo, error) {
	t, err := scanTodo(d.conn.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = ? AND user_id = ?`,
		id, owner,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("todo", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting todo %s: %w", id, err)
	}
	return t, nil
}

// UpdateOwned applies patch inside a transaction.
//
// The read and the write share one transaction, so a concurrent delete
// cannot slip in between and the row we return is the row we wrote. The
// connection opens transactions with BEGIN IMMEDIATE (see connPragmas), so
// concurrent updates queue on the write lock and the last one wins. When the
// patch changes nothing, no UPDATE runs and updated_at stays put.
func (d *TodoDB) UpdateOwned(ctx context.Context, owner, id string, patch model.TodoPatch) (*model.Todo, error) {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning update: %w", err)
	}
	// Rollback after Commit is a no-op returning sql.ErrTxDone.
	defer tx.Rollback()

	t, err := scanTodo(tx.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = ? AND user_id = ?`,
		id, owner,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("todo", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading todo %s for update: %w", id, err)
	}

	if !patch.Apply(t) {
		return t, nil
	}
	t.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		`UPDATE todos
		 SET title = ?, description = ?, is_completed = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		t.Title,
		t.Description,
		t.IsCompleted,
		t.UpdatedAt,
		id,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating todo %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing todo update: %w", err)
	}
	return t, nil
}

// DeleteOwned removes one todo permanently.
//
// RowsAffected tells us whether the WHERE matched. Zero rows means the todo
// never existed, was already deleted, or belongs to someone else; all three
// look the same to the caller.
func (d *TodoDB) DeleteOwned(ctx context.Context, owner, id string) error {
	result, err := d.conn.ExecContext(ctx,
		`DELETE FROM todos WHERE id = ? AND user_id = ?`,
		id, owner,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting todo %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("todo", id)
	}
	return nil
}
