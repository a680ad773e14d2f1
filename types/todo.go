package types

import "time"

const (
	MinPriority = 1
	MaxPriority = 5
)

// Todo is a task owned by a single user.
type Todo struct {
	// ID is the unique identifier of the todo.
	ID int `json:"id" db:"id"`

	// OwnerID is the id of the user who created the todo. It is always
	// taken from the caller's token, never from the request body.
	OwnerID int `json:"owner_id" db:"owner_id"`

	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`

	// Priority ranges from MinPriority to MaxPriority.
	Priority int `json:"priority" db:"priority"`

	Complete bool `json:"complete" db:"complete"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TodoPatch is a partial update of a todo. Nil fields are left untouched.
type TodoPatch struct {
	Title       *string
	Description *string
	Priority    *int
	Complete    *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p TodoPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.Complete == nil
}

// Apply copies the non-nil fields of p onto todo.
func (p TodoPatch) Apply(todo *Todo) {
	if p.Title != nil {
		todo.Title = *p.Title
	}
	if p.Description != nil {
		todo.Description = *p.Description
	}
	if p.Priority != nil {
		todo.Priority = *p.Priority
	}
	if p.Complete != nil {
		todo.Complete = *p.Complete
	}
}
