package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/todos-api/apiserver/internal/auth"
	"github.com/todos-api/apiserver/internal/services"
	"github.com/todos-api/apiserver/types"
)

const (
	minTitleLength       = 3
	maxTitleLength       = 255
	minDescriptionLength = 3
	maxDescriptionLength = 100
	todoIDParam          = "todoID"
)

// TodoHandler provides HTTP handlers for a user's todos.
type TodoHandler struct {
	todoService *services.TodoService
}

func NewTodoHandler(todoService *services.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// TodoRouter registers todo routes. It must be mounted under a path that
// carries the {userID} parameter.
func TodoRouter(r chi.Router, todoService *services.TodoService, gate *auth.Gate) {
	handler := NewTodoHandler(todoService)

	r.Use(requireOwner(gate))
	r.Post("/", handler.CreateTodo)
	r.Get("/", handler.ListTodos)
	r.Delete("/", handler.DeleteAllTodos)
	r.Route("/{todoID}", func(r chi.Router) {
		r.Get("/", handler.GetTodo)
		r.Patch("/", handler.UpdateTodo)
		r.Delete("/", handler.DeleteTodo)
	})
}

func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	req, err := parseTodoRequest(r)
	if err != nil {
		writeServiceError(w, r, err, "failed to create todo")
		return
	}

	todo, err := h.todoService.Create(r.Context(), identity.UserID, services.TodoInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Complete:    req.Complete,
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to create todo")
		return
	}

	writeJSON(w, http.StatusCreated, CreateTodoResponse{Message: "todo created", TodoID: todo.ID})
}

func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	todos, err := h.todoService.List(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, r, err, "failed to list todos")
		return
	}
	if todos == nil {
		todos = []types.Todo{}
	}

	writeJSON(w, http.StatusOK, todos)
}

func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseID(r, todoIDParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	todo, err := h.todoService.Get(r.Context(), identity.UserID, id)
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch todo")
		return
	}

	writeJSON(w, http.StatusOK, todo)
}

// UpdateTodo applies a partial update read from query parameters.
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseID(r, todoIDParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	patch, err := parseTodoPatch(r)
	if err != nil {
		writeServiceError(w, r, err, "failed to update todo")
		return
	}

	if _, err := h.todoService.Update(r.Context(), identity.UserID, id, patch); err != nil {
		writeServiceError(w, r, err, "failed to update todo")
		return
	}

	writeJSON(w, http.StatusAccepted, MessageResponse{Message: fmt.Sprintf("todo %d updated", id)})
}

func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseID(r, todoIDParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.todoService.Delete(r.Context(), identity.UserID, id); err != nil {
		writeServiceError(w, r, err, "failed to delete todo")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("todo %d deleted", id)})
}

func (h *TodoHandler) DeleteAllTodos(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	deleted, err := h.todoService.DeleteAll(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, r, err, "failed to delete todos")
		return
	}

	writeJSON(w, http.StatusOK, DeleteAllResponse{Message: "todos deleted", Deleted: deleted})
}

// TodoRequest is the create payload. Any owner id sent by the client is
// ignored.
type TodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Complete    bool   `json:"complete"`
}

type CreateTodoResponse struct {
	Message string `json:"message"`
	TodoID  int    `json:"todo_id"`
}

type DeleteAllResponse struct {
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
}

func parseTodoRequest(r *http.Request) (TodoRequest, error) {
	var req TodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return TodoRequest{}, fmt.Errorf("%w: invalid request body", errValidation)
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)

	if err := validateTitle(req.Title); err != nil {
		return TodoRequest{}, err
	}
	if err := validateDescription(req.Description); err != nil {
		return TodoRequest{}, err
	}
	if err := validatePriority(req.Priority); err != nil {
		return TodoRequest{}, err
	}
	return req, nil
}

func parseTodoPatch(r *http.Request) (types.TodoPatch, error) {
	query := r.URL.Query()
	var patch types.TodoPatch

	if query.Has("title") {
		title := strings.TrimSpace(query.Get("title"))
		if err := validateTitle(title); err != nil {
			return types.TodoPatch{}, err
		}
		patch.Title = &title
	}
	if query.Has("description") {
		description := strings.TrimSpace(query.Get("description"))
		if err := validateDescription(description); err != nil {
			return types.TodoPatch{}, err
		}
		patch.Description = &description
	}
	if query.Has("priority") {
		priority, err := strconv.Atoi(strings.TrimSpace(query.Get("priority")))
		if err != nil {
			return types.TodoPatch{}, fmt.Errorf("%w: priority must be an integer", errValidation)
		}
		if err := validatePriority(priority); err != nil {
			return types.TodoPatch{}, err
		}
		patch.Priority = &priority
	}
	if query.Has("complete") {
		complete, err := strconv.ParseBool(strings.TrimSpace(query.Get("complete")))
		if err != nil {
			return types.TodoPatch{}, fmt.Errorf("%w: complete must be a boolean", errValidation)
		}
		patch.Complete = &complete
	}

	if patch.IsEmpty() {
		return types.TodoPatch{}, fmt.Errorf("%w: at least one of title, description, priority or complete is required", errValidation)
	}
	return patch, nil
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n < minTitleLength || n > maxTitleLength {
		return fmt.Errorf("%w: title must be %d-%d characters", errValidation, minTitleLength, maxTitleLength)
	}
	return nil
}

func validateDescription(description string) error {
	n := utf8.RuneCountInString(description)
	if n < minDescriptionLength || n > maxDescriptionLength {
		return fmt.Errorf("%w: description must be %d-%d characters", errValidation, minDescriptionLength, maxDescriptionLength)
	}
	return nil
}

func validatePriority(priority int) error {
	if priority < types.MinPriority || priority > types.MaxPriority {
		return fmt.Errorf("%w: priority must be %d-%d", errValidation, types.MinPriority, types.MaxPriority)
	}
	return nil
}
