package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/todos-api/apiserver/types"
)

// TodoRepository handles persistence for todos. Every read and write is
// filtered by owner id.
type TodoRepository struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) Create(ctx context.Context, todo types.Todo) (types.Todo, error) {
	now := time.Now()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	const query = `
		INSERT INTO todos (owner_id, title, description, priority, complete, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		todo.OwnerID,
		todo.Title,
		todo.Description,
		todo.Priority,
		todo.Complete,
		todo.CreatedAt,
		todo.UpdatedAt,
	).Scan(&todo.ID); err != nil {
		return types.Todo{}, translateError(err)
	}
	return todo, nil
}

func (r *TodoRepository) ListByOwner(ctx context.Context, ownerID int) ([]types.Todo, error) {
	const query = `
		SELECT id, owner_id, title, description, priority, complete, created_at, updated_at
		FROM todos
		WHERE owner_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := make([]types.Todo, 0)
	for rows.Next() {
		var todo types.Todo
		if err := rows.Scan(
			&todo.ID,
			&todo.OwnerID,
			&todo.Title,
			&todo.Description,
			&todo.Priority,
			&todo.Complete,
			&todo.CreatedAt,
			&todo.UpdatedAt,
		); err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return todos, nil
}

func (r *TodoRepository) GetByOwner(ctx context.Context, ownerID, id int) (types.Todo, error) {
	const query = `
		SELECT id, owner_id, title, description, priority, complete, created_at, updated_at
		FROM todos
		WHERE id = $1 AND owner_id = $2`
	return scanTodo(r.db.QueryRowContext(ctx, query, id, ownerID))
}

// UpdateByOwner applies the non-nil fields of patch to the owner's todo.
func (r *TodoRepository) UpdateByOwner(ctx context.Context, ownerID, id int, patch types.TodoPatch) (types.Todo, error) {
	const query = `
		UPDATE todos
		SET title = COALESCE($1, title),
			description = COALESCE($2, description),
			priority = COALESCE($3, priority),
			complete = COALESCE($4, complete),
			updated_at = $5
		WHERE id = $6 AND owner_id = $7
		RETURNING id, owner_id, title, description, priority, complete, created_at, updated_at`
	return scanTodo(r.db.QueryRowContext(
		ctx,
		query,
		patch.Title,
		patch.Description,
		patch.Priority,
		patch.Complete,
		time.Now(),
		id,
		ownerID,
	))
}

func (r *TodoRepository) DeleteByOwner(ctx context.Context, ownerID, id int) error {
	const query = `DELETE FROM todos WHERE id = $1 AND owner_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllByOwner removes every todo of the owner and returns how many were
// removed. It returns ErrNotFound when the owner has none.
func (r *TodoRepository) DeleteAllByOwner(ctx context.Context, ownerID int) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const countQuery = `SELECT COUNT(1) FROM todos WHERE owner_id = $1`
	var total int
	if err := tx.QueryRowContext(ctx, countQuery, ownerID).Scan(&total); err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, ErrNotFound
	}

	const deleteQuery = `DELETE FROM todos WHERE owner_id = $1`
	result, err := tx.ExecContext(ctx, deleteQuery, ownerID)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(affected), nil
}

func scanTodo(row *sql.Row) (types.Todo, error) {
	var todo types.Todo
	err := row.Scan(
		&todo.ID,
		&todo.OwnerID,
		&todo.Title,
		&todo.Description,
		&todo.Priority,
		&todo.Complete,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Todo{}, ErrNotFound
		}
		return types.Todo{}, err
	}
	return todo, nil
}
