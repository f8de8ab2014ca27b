package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/sakif/todolist/internal/apperror"
	"github.com/sakif/todolist/internal/model"
)

var todoCols = []string{"id", "user_id", "title", "description", "is_completed", "created_at", "updated_at"}

func TestTodoListByOwner(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTodoRepository(db)
	now := time.Now()

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+todos\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(todoCols).
			AddRow("t-1", "u-1", "A", "", false, now, now).
			AddRow("t-2", "u-1", "B", "d", true, now, now))

	todos, err := repo.ListByOwner(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("ListByOwner error: %v", err)
	}
	if len(todos) != 2 || todos[1].Title != "B" || !todos[1].IsCompleted {
		t.Fatalf("unexpected todos: %+v", todos)
	}
}

func TestTodoListByOwner_EmptyIsNotNil(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTodoRepository(db)

	mock.ExpectQuery(`FROM\s+todos`).WithArgs("u-1").WillReturnRows(sqlmock.NewRows(todoCols))

	todos, err := repo.ListByOwner(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("ListByOwner error: %v", err)
	}
	if todos == nil || len(todos) != 0 {
		t.Fatalf("todos = %#v, want empty non-nil slice", todos)
	}
}

func TestTodoCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTodoRepository(db)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+todos`).
		WithArgs(sqlmock.AnyArg(), "u-1", "Buy milk", "", false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	todo := &model.Todo{Owner: "u-1", Title: "Buy milk"}
	if err := repo.Create(context.Background(), todo); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if todo.ID == "" {
		t.Fatal("Create did not assign an id")
	}
}

func TestTodoGetOwned_SinglePredicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTodoRepository(db)

	mock.ExpectQuery(`(?s)FROM\s+todos\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2`).
		WithArgs("t-1", "intruder").
		WillReturnRows(sqlmock.NewRows(todoCols))

	_, err := repo.GetOwned(context.Background(), "intruder", "t-1")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetOwned error = %v, want ErrNotFound", err)
	}
}

func TestTodoUpdateOwned_PassesPatchThrough(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTodoRepository(db)
	now := time.Now()
	done := true

	mock.ExpectQuery(`(?s)^UPDATE\s+todos\s+SET.*COALESCE.*WHERE\s+id\s*=\s*\$4\s+AND\s+user_id\s*=\s*\$5\s+RETURNING`).
		WithArgs(nil, nil, true, "t-1", "u-1").
		WillReturnRows(sqlmock.NewRows(todoCols).AddRow("t-1", "u-1", "A", "", true, now, now))

	got, err := repo.UpdateOwned(context.Background(), "u-1", "t-1", model.TodoPatch{IsCompleted: &done})
	if err != nil {
		t.Fatalf("UpdateOwned error: %v", err)
	}
	if !got.IsCompleted {
		t.Fatalf("unexpected todo: %+v", got)
	}
}

func TestTodoUpdateOwned_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTodoRepository(db)
	title := "x"

	mock.ExpectQuery(`(?s)^UPDATE\s+todos`).
		WithArgs("x", nil, nil, "t-1", "u-2").
		WillReturnRows(sqlmock.NewRows(todoCols))

	_, err := repo.UpdateOwned(context.Background(), "u-2", "t-1", model.TodoPatch{Title: &title})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("UpdateOwned error = %v, want ErrNotFound", err)
	}
}

func TestTodoDeleteOwned(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{"deleted", 1, nil},
		{"missing or foreign", 0, apperror.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			repo := NewTodoRepository(db)

			mock.ExpectExec(`(?s)^DELETE\s+FROM\s+todos\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2`).
				WithArgs("t-1", "u-1").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := repo.DeleteOwned(context.Background(), "u-1", "t-1")
			if tt.wantErr == nil && err != nil {
				t.Fatalf("DeleteOwned error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("DeleteOwned error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
