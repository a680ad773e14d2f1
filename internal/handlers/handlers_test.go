package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/todos-api/apiserver/internal/auth"
	"github.com/todos-api/apiserver/internal/services"
	"github.com/todos-api/apiserver/internal/store"
)

func TestWriteServiceError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{auth.ErrTokenExpired, http.StatusUnauthorized},
		{fmt.Errorf("parse: %w", auth.ErrInvalidToken), http.StatusUnauthorized},
		{auth.ErrOwnershipMismatch, http.StatusUnauthorized},
		{auth.ErrNotAuthorized, http.StatusUnauthorized},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("get todo: %w", store.ErrNotFound), http.StatusNotFound},
		{errors.Join(store.ErrDuplicate, errors.New("pq: duplicate key")), http.StatusNotAcceptable},
		{services.ErrInvalidUsername, http.StatusUnprocessableEntity},
		{services.ErrEmptyPatch, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: too long", services.ErrInvalidPassword), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: too long", services.ErrInvalidEmail), http.StatusUnprocessableEntity},
		{services.ErrMissingField, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: title", errValidation), http.StatusUnprocessableEntity},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			writeServiceError(rec, req, tc.err, "failed")
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("dial tcp 10.0.0.1:5432"), "failed to list todos")
	if strings.Contains(rec.Body.String(), "10.0.0.1") {
		t.Fatalf("internal error leaked cause: %s", rec.Body.String())
	}
}

func TestParseTodoPatch(t *testing.T) {
	cases := []struct {
		query   string
		wantErr bool
	}{
		{"", true},
		{"title=ab", true},
		{"title=abc", false},
		{"title=" + strings.Repeat("t", maxTitleLength), false},
		{"title=" + strings.Repeat("t", maxTitleLength+1), true},
		{"description=xy", true},
		{"description=" + strings.Repeat("d", maxDescriptionLength+1), true},
		{"priority=0", true},
		{"priority=high", true},
		{"priority=5", false},
		{"complete=maybe", true},
		{"complete=false", false},
		{"token=abc", true},
	}

	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/?"+tc.query, nil)
			_, err := parseTodoPatch(req)
			if tc.wantErr {
				if !errors.Is(err, errValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseTodoPatchKeepsUnsetFieldsNil(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/?complete=true", nil)
	patch, err := parseTodoPatch(req)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if patch.Complete == nil || !*patch.Complete {
		t.Fatalf("expected complete=true")
	}
	if patch.Title != nil || patch.Description != nil || patch.Priority != nil {
		t.Fatalf("unset fields must stay nil: %+v", patch)
	}
}

func TestParseTodoRequest(t *testing.T) {
	body := `{"title":"  buy milk ","description":"two liters","priority":2,"owner_id":42}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	parsed, err := parseTodoRequest(req)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Title != "buy milk" || parsed.Priority != 2 {
		t.Fatalf("unexpected request: %+v", parsed)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	if _, err := parseTodoRequest(req); !errors.Is(err, errValidation) {
		t.Fatalf("expected validation error for bad json, got %v", err)
	}
}

func TestParseTodoRequestTitleBound(t *testing.T) {
	for _, n := range []int{maxTitleLength + 1, 300} {
		body := fmt.Sprintf(`{"title":%q,"description":"valid","priority":1}`, strings.Repeat("t", n))
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		if _, err := parseTodoRequest(req); !errors.Is(err, errValidation) {
			t.Fatalf("title of %d characters: expected validation error, got %v", n, err)
		}
	}

	body := fmt.Sprintf(`{"title":%q,"description":"valid","priority":1}`, strings.Repeat("t", maxTitleLength))
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if _, err := parseTodoRequest(req); err != nil {
		t.Fatalf("title at the bound should be accepted: %v", err)
	}
}

func TestRequireOwner(t *testing.T) {
	tokens, err := auth.NewTokenService("secret")
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	gate := auth.NewGate(tokens, "admin")
	token, err := tokens.Issue("alice", 7, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := chi.NewRouter()
	r.With(requireOwner(gate)).Get("/{userID}", func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFromContext(r.Context())
		if !ok {
			t.Fatalf("identity missing from context")
		}
		writeJSON(w, http.StatusOK, identity)
	})

	cases := []struct {
		path   string
		status int
	}{
		{"/7?token=" + token, http.StatusOK},
		{"/8?token=" + token, http.StatusUnauthorized},
		{"/7", http.StatusUnauthorized},
		{"/zero?token=" + token, http.StatusBadRequest},
		{"/0?token=" + token, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.status, rec.Code)
		}
	}
}
