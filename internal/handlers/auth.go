package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/todos-api/apiserver/internal/auth"
	"github.com/todos-api/apiserver/internal/services"
	"github.com/todos-api/apiserver/types"
)

// AuthHandler provides registration, login and account endpoints.
type AuthHandler struct {
	userService *services.UserService
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// AuthRouter registers auth and account routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService, gate *auth.Gate) {
	handler := NewAuthHandler(userService)

	r.Post("/", handler.Register)
	r.Get("/token", handler.Token)
	r.With(requireAdmin(gate)).Get("/", handler.ListUsers)
	r.Route("/{userID}", func(r chi.Router) {
		r.Use(requireOwner(gate))
		r.Get("/", handler.GetUser)
		r.Patch("/", handler.UpdateUser)
		r.Delete("/", handler.DeleteUser)
	})
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	user, err := h.userService.Register(r.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		UserID:  user.ID,
		Message: "user created, request a token at /auth/token",
	})
}

// Token verifies credentials and returns a signed token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	username := strings.TrimSpace(query.Get("user_name"))
	password := query.Get("password")
	if username == "" || password == "" {
		writeError(w, http.StatusUnprocessableEntity, "user_name and password are required")
		return
	}

	token, err := h.userService.IssueToken(r.Context(), username, password)
	if err != nil {
		writeServiceError(w, r, err, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "failed to list users")
		return
	}
	if users == nil {
		users = []types.User{}
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userService.Get(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateUser applies a partial update from the JSON body.
func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	update := services.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}
	if update.IsEmpty() {
		writeError(w, http.StatusUnprocessableEntity, "at least one of username, email or password is required")
		return
	}

	if _, err := h.userService.Update(r.Context(), identity.UserID, update); err != nil {
		writeServiceError(w, r, err, "failed to update user")
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: fmt.Sprintf("user %d updated", identity.UserID)})
}

func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.userService.Delete(r.Context(), identity.UserID); err != nil {
		writeServiceError(w, r, err, "failed to delete user")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("user %d deleted", identity.UserID)})
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type RegisterResponse struct {
	UserID  int    `json:"user_id"`
	Message string `json:"message"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
