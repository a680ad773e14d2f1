package services

import (
	"context"
	"fmt"

	"github.com/todos-api/apiserver/types"
)

// TodoRepository defines owner-scoped persistence operations for todos.
type TodoRepository interface {
	Create(ctx context.Context, todo types.Todo) (types.Todo, error)
	ListByOwner(ctx context.Context, ownerID int) ([]types.Todo, error)
	GetByOwner(ctx context.Context, ownerID, id int) (types.Todo, error)
	UpdateByOwner(ctx context.Context, ownerID, id int, patch types.TodoPatch) (types.Todo, error)
	DeleteByOwner(ctx context.Context, ownerID, id int) error
	DeleteAllByOwner(ctx context.Context, ownerID int) (int, error)
}

// TodoService encapsulates todo use-cases. ownerID is always the id of the
// authenticated caller.
type TodoService struct {
	repo    TodoRepository
	events  EventPublisher
	archive *Archiver
}

func NewTodoService(repo TodoRepository, events EventPublisher, archive *Archiver) *TodoService {
	return &TodoService{repo: repo, events: events, archive: archive}
}

// TodoInput is a todo creation request after shape validation.
type TodoInput struct {
	Title       string
	Description string
	Priority    int
	Complete    bool
}

// Create stores a new todo owned by ownerID.
func (s *TodoService) Create(ctx context.Context, ownerID int, in TodoInput) (types.Todo, error) {
	todo, err := s.repo.Create(ctx, types.Todo{
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Complete:    in.Complete,
	})
	if err != nil {
		return types.Todo{}, fmt.Errorf("create todo: %w", err)
	}

	publishEvent(ctx, s.events, ChannelTodoCreated, types.Event{UserID: ownerID, TodoID: todo.ID})
	return todo, nil
}

func (s *TodoService) List(ctx context.Context, ownerID int) ([]types.Todo, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *TodoService) Get(ctx context.Context, ownerID, id int) (types.Todo, error) {
	return s.repo.GetByOwner(ctx, ownerID, id)
}

// Update applies patch to the owner's todo. A todo that does not exist under
// ownerID yields store.ErrNotFound.
func (s *TodoService) Update(ctx context.Context, ownerID, id int, patch types.TodoPatch) (types.Todo, error) {
	if patch.IsEmpty() {
		return types.Todo{}, ErrEmptyPatch
	}
	todo, err := s.repo.UpdateByOwner(ctx, ownerID, id, patch)
	if err != nil {
		return types.Todo{}, fmt.Errorf("update todo: %w", err)
	}
	return todo, nil
}

func (s *TodoService) Delete(ctx context.Context, ownerID, id int) error {
	if err := s.repo.DeleteByOwner(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}

	publishEvent(ctx, s.events, ChannelTodoDeleted, types.Event{UserID: ownerID, TodoID: id, Count: 1})
	return nil
}

// DeleteAll removes every todo of ownerID and returns how many were removed.
// Having nothing to delete yields store.ErrNotFound.
func (s *TodoService) DeleteAll(ctx context.Context, ownerID int) (int, error) {
	if s.archive != nil {
		todos, err := s.repo.ListByOwner(ctx, ownerID)
		if err != nil {
			return 0, fmt.Errorf("list todos: %w", err)
		}
		s.archive.Save(ctx, ownerID, todos)
	}

	deleted, err := s.repo.DeleteAllByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete todos: %w", err)
	}

	publishEvent(ctx, s.events, ChannelTodoDeleted, types.Event{UserID: ownerID, Count: deleted})
	return deleted, nil
}
