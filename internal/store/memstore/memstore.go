// Package memstore is an in-memory implementation of the user and todo
// repositories. It enforces the same uniqueness and not-found semantics as
// the PostgreSQL store and is safe for concurrent use.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/todos-api/apiserver/internal/store"
	"github.com/todos-api/apiserver/types"
)

// Store holds users and todos behind a single mutex.
type Store struct {
	mu         sync.Mutex
	users      map[int]types.User
	todos      map[int]types.Todo
	nextUserID int
	nextTodoID int
}

func New() *Store {
	return &Store{
		users: make(map[int]types.User),
		todos: make(map[int]types.Todo),
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

// Todos returns the todo repository view of the store.
func (s *Store) Todos() *TodoRepository {
	return &TodoRepository{s: s}
}

type UserRepository struct {
	s *Store
}

func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	users := make([]types.User, 0, len(r.s.users))
	for _, user := range r.s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, user := range r.s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.conflicts(0, user.Username, user.Email) {
		return types.User{}, store.ErrDuplicate
	}

	r.s.nextUserID++
	now := time.Now()
	user.ID = r.s.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = user
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, id int, patch types.UserPatch) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	patch.Apply(&user)
	if r.s.conflicts(id, user.Username, user.Email) {
		return types.User{}, store.ErrDuplicate
	}
	user.UpdatedAt = time.Now()
	r.s.users[id] = user
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

// conflicts reports whether another user already holds username or email.
// Callers hold s.mu.
func (s *Store) conflicts(selfID int, username, email string) bool {
	for id, other := range s.users {
		if id == selfID {
			continue
		}
		if other.Username == username || other.Email == email {
			return true
		}
	}
	return false
}

type TodoRepository struct {
	s *Store
}

func (r *TodoRepository) Create(ctx context.Context, todo types.Todo) (types.Todo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextTodoID++
	now := time.Now()
	todo.ID = r.s.nextTodoID
	todo.CreatedAt = now
	todo.UpdatedAt = now
	r.s.todos[todo.ID] = todo
	return todo, nil
}

func (r *TodoRepository) ListByOwner(ctx context.Context, ownerID int) ([]types.Todo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	todos := make([]types.Todo, 0)
	for _, todo := range r.s.todos {
		if todo.OwnerID == ownerID {
			todos = append(todos, todo)
		}
	}
	sort.Slice(todos, func(i, j int) bool { return todos[i].ID < todos[j].ID })
	return todos, nil
}

func (r *TodoRepository) GetByOwner(ctx context.Context, ownerID, id int) (types.Todo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	todo, ok := r.s.todos[id]
	if !ok || todo.OwnerID != ownerID {
		return types.Todo{}, store.ErrNotFound
	}
	return todo, nil
}

func (r *TodoRepository) UpdateByOwner(ctx context.Context, ownerID, id int, patch types.TodoPatch) (types.Todo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	todo, ok := r.s.todos[id]
	if !ok || todo.OwnerID != ownerID {
		return types.Todo{}, store.ErrNotFound
	}
	patch.Apply(&todo)
	todo.UpdatedAt = time.Now()
	r.s.todos[id] = todo
	return todo, nil
}

func (r *TodoRepository) DeleteByOwner(ctx context.Context, ownerID, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	todo, ok := r.s.todos[id]
	if !ok || todo.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(r.s.todos, id)
	return nil
}

func (r *TodoRepository) DeleteAllByOwner(ctx context.Context, ownerID int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	deleted := 0
	for id, todo := range r.s.todos {
		if todo.OwnerID == ownerID {
			delete(r.s.todos, id)
			deleted++
		}
	}
	if deleted == 0 {
		return 0, store.ErrNotFound
	}
	return deleted, nil
}
