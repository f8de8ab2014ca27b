package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/todolist/internal/apperror"
	"github.com/sakif/todolist/internal/model"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// Hand-written in-memory fakes. They follow the same contracts as the real
// backends (NotFound for misses, Conflict for duplicate emails, id AND owner
// for single-todo lookups) so the service logic can be tested without a
// database. Error fields simulate store outages.

type fakeUserRepo struct {
	mu     sync.Mutex
	byID   map[string]*model.User
	nextID int

	createErr  error
	getErr     error
	createHook func() // runs before the duplicate check, to simulate a race
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.createHook != nil {
		f.createHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.byID {
		if u.Email == user.Email {
			return apperror.Conflict("user", "email")
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.byID[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) delete(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
}

type fakeTodoRepo struct {
	mu     sync.Mutex
	byID   map[string]*model.Todo
	nextID int
	seq    map[string]int

	err error
}

func newFakeTodoRepo() *fakeTodoRepo {
	return &fakeTodoRepo{byID: make(map[string]*model.Todo), seq: make(map[string]int)}
}

func (f *fakeTodoRepo) ListByOwner(_ context.Context, owner string) ([]model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Todo, 0)
	for _, t := range f.byID {
		if t.Owner == owner {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return f.seq[out[i].ID] < f.seq[out[j].ID] })
	return out, nil
}

func (f *fakeTodoRepo) Create(_ context.Context, todo *model.Todo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	todo.ID = fmt.Sprintf("todo-%d", f.nextID)
	todo.CreatedAt = time.Now()
	todo.UpdatedAt = todo.CreatedAt
	stored := *todo
	f.byID[todo.ID] = &stored
	f.seq[todo.ID] = f.nextID
	return nil
}

// owned is the fake's version of WHERE id = ? AND user_id = ?.
func (f *fakeTodoRepo) owned(owner, id string) (*model.Todo, bool) {
	t, ok := f.byID[id]
	if !ok || t.Owner != owner {
		return nil, false
	}
	return t, true
}

func (f *fakeTodoRepo) GetOwned(_ context.Context, owner, id string) (*model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.owned(owner, id)
	if !ok {
		return nil, apperror.NotFound("todo", id)
	}
	out := *t
	return &out, nil
}

func (f *fakeTodoRepo) UpdateOwned(_ context.Context, owner, id string, patch model.TodoPatch) (*model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.owned(owner, id)
	if !ok {
		return nil, apperror.NotFound("todo", id)
	}
	if patch.Apply(t) {
		t.UpdatedAt = time.Now()
	}
	out := *t
	return &out, nil
}

func (f *fakeTodoRepo) DeleteOwned(_ context.Context, owner, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.owned(owner, id); !ok {
		return apperror.NotFound("todo", id)
	}
	delete(f.byID, id)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
