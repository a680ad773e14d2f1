package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/todos-api/apiserver/config"
	"github.com/todos-api/apiserver/internal/auth"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type client struct {
	t    *testing.T
	base string
}

func newTestServer(t *testing.T) *client {
	t.Helper()
	cfg := config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		Auth: config.AuthConfig{
			JWTSecret:     testSecret,
			TokenTTL:      20 * time.Minute,
			BcryptCost:    bcrypt.MinCost,
			AdminUsername: "admin",
		},
		MQ:      config.MQConfig{Backend: config.BackendNone},
		Storage: config.StorageConfig{Backend: config.BackendNone},
	}

	srv, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &client{t: t, base: ts.URL}
}

func (c *client) do(method, path string, payload any) (int, map[string]any) {
	c.t.Helper()
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			c.t.Fatalf("encode payload: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		c.t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	body := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &body)
	return resp.StatusCode, body
}

func (c *client) register(username, email, password string) int {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/auth", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		c.t.Fatalf("register %s: expected 201, got %d %v", username, status, body)
	}
	return int(body["user_id"].(float64))
}

func (c *client) token(username, password string) string {
	c.t.Helper()
	status, body := c.do(http.MethodGet, "/auth/token?"+url.Values{"user_name": {username}, "password": {password}}.Encode(), nil)
	if status != http.StatusOK {
		c.t.Fatalf("token for %s: expected 200, got %d %v", username, status, body)
	}
	return body["token"].(string)
}

func withToken(path, token string) string {
	return path + "?" + url.Values{"token": {token}}.Encode()
}

func TestScenario(t *testing.T) {
	c := newTestServer(t)

	aliceID := c.register("alice", "a@x.com", "pw1234")
	bobID := c.register("bob", "b@x.com", "pw5678")

	status, body := c.do(http.MethodGet, "/auth/token?"+url.Values{"user_name": {"alice"}, "password": {"wrong"}}.Encode(), nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d %v", status, body)
	}
	status, _ = c.do(http.MethodGet, "/auth/token?"+url.Values{"user_name": {"nobody"}, "password": {"pw"}}.Encode(), nil)
	if status != http.StatusNotFound {
		t.Fatalf("unknown user: expected 404, got %d", status)
	}

	token := c.token("alice", "pw1234")

	status, body = c.do(http.MethodPost, withToken(fmt.Sprintf("/%d/todos", aliceID), token), map[string]any{
		"title":       "buy milk",
		"description": "two liters",
		"priority":    3,
		"owner_id":    bobID,
	})
	if status != http.StatusCreated {
		t.Fatalf("create todo: expected 201, got %d %v", status, body)
	}
	todoID := int(body["todo_id"].(float64))

	status, body = c.do(http.MethodGet, withToken(fmt.Sprintf("/%d/todos/%d", aliceID, todoID), token), nil)
	if status != http.StatusOK {
		t.Fatalf("get todo: expected 200, got %d", status)
	}
	if owner := int(body["owner_id"].(float64)); owner != aliceID {
		t.Fatalf("client-supplied owner id must be ignored: owner=%d", owner)
	}

	status, _ = c.do(http.MethodGet, withToken(fmt.Sprintf("/%d/todos/%d", bobID, todoID), token), nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("ownership mismatch: expected 401, got %d", status)
	}

	status, _ = c.do(http.MethodDelete, withToken(fmt.Sprintf("/%d/todos/%d", aliceID, todoID), token), nil)
	if status != http.StatusOK {
		t.Fatalf("delete todo: expected 200, got %d", status)
	}

	status, _ = c.do(http.MethodDelete, withToken(fmt.Sprintf("/%d/todos", aliceID), token), nil)
	if status != http.StatusNotFound {
		t.Fatalf("delete all with nothing left: expected 404, got %d", status)
	}
}

func TestTodoValidationAndUpdate(t *testing.T) {
	c := newTestServer(t)
	id := c.register("alice", "a@x.com", "pw1234")
	token := c.token("alice", "pw1234")
	todos := fmt.Sprintf("/%d/todos", id)

	invalid := []map[string]any{
		{"title": "ab", "description": "valid", "priority": 1},
		{"title": "valid", "description": "ab", "priority": 1},
		{"title": "valid", "description": "valid", "priority": 0},
		{"title": "valid", "description": "valid", "priority": 6},
	}
	for _, payload := range invalid {
		if status, body := c.do(http.MethodPost, withToken(todos, token), payload); status != http.StatusUnprocessableEntity {
			t.Fatalf("payload %v: expected 422, got %d %v", payload, status, body)
		}
	}

	_, body := c.do(http.MethodPost, withToken(todos, token), map[string]any{
		"title": "walk dog", "description": "around the park", "priority": 2,
	})
	todoID := int(body["todo_id"].(float64))
	todo := fmt.Sprintf("%s/%d", todos, todoID)

	status, _ := c.do(http.MethodPatch, withToken(todo, token), nil)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("empty patch: expected 422, got %d", status)
	}
	status, _ = c.do(http.MethodPatch, withToken(todo, token)+"&priority=9", nil)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("bad priority patch: expected 422, got %d", status)
	}
	status, _ = c.do(http.MethodPatch, withToken(todo, token)+"&complete=true&priority=5", nil)
	if status != http.StatusAccepted {
		t.Fatalf("patch: expected 202, got %d", status)
	}
	status, _ = c.do(http.MethodPatch, withToken(todos+"/999", token)+"&complete=true", nil)
	if status != http.StatusNotFound {
		t.Fatalf("patch missing todo: expected 404, got %d", status)
	}

	_, body = c.do(http.MethodGet, withToken(todo, token), nil)
	if body["complete"] != true || body["priority"].(float64) != 5 || body["title"] != "walk dog" {
		t.Fatalf("unexpected todo after patch: %v", body)
	}

	status, _ = c.do(http.MethodGet, withToken(todos+"/abc", token), nil)
	if status != http.StatusBadRequest {
		t.Fatalf("non-numeric todo id: expected 400, got %d", status)
	}

	status, body = c.do(http.MethodDelete, withToken(todos, token), nil)
	if status != http.StatusOK || body["deleted"].(float64) != 1 {
		t.Fatalf("delete all: expected 200 with 1 deleted, got %d %v", status, body)
	}
}

func TestTokenFailures(t *testing.T) {
	c := newTestServer(t)
	id := c.register("alice", "a@x.com", "pw1234")
	todos := fmt.Sprintf("/%d/todos", id)

	status, _ := c.do(http.MethodGet, todos, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", status)
	}
	status, _ = c.do(http.MethodGet, withToken(todos, "garbage"), nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", status)
	}

	tokens, err := auth.NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	expired, err := tokens.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }).Issue("alice", id, time.Minute)
	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}
	status, body := c.do(http.MethodGet, withToken(todos, expired), nil)
	if status != http.StatusUnauthorized || body["error"] != "token expired" {
		t.Fatalf("expired token: expected 401 token expired, got %d %v", status, body)
	}
}

func TestUserRoutes(t *testing.T) {
	c := newTestServer(t)
	aliceID := c.register("alice", "a@x.com", "pw1234")
	bobID := c.register("bob", "b@x.com", "pw5678")
	c.register("admin", "admin@x.com", "root")

	status, _ := c.do(http.MethodPost, "/auth", map[string]string{"username": "alice", "email": "z@x.com", "password": "pw"})
	if status != http.StatusNotAcceptable {
		t.Fatalf("duplicate username: expected 406, got %d", status)
	}
	status, _ = c.do(http.MethodPost, "/auth", map[string]string{"username": "abcdefghijklmno", "email": "long@x.com", "password": "pw"})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("long username: expected 422, got %d", status)
	}

	alice := c.token("alice", "pw1234")
	admin := c.token("admin", "root")

	status, _ = c.do(http.MethodGet, withToken("/auth", alice), nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("non-admin listing: expected 401, got %d", status)
	}
	status, _ = c.do(http.MethodGet, withToken("/auth", admin), nil)
	if status != http.StatusOK {
		t.Fatalf("admin listing: expected 200, got %d", status)
	}

	status, body := c.do(http.MethodGet, withToken(fmt.Sprintf("/auth/%d", aliceID), alice), nil)
	if status != http.StatusOK || body["username"] != "alice" {
		t.Fatalf("get self: got %d %v", status, body)
	}
	if _, leaked := body["password_hash"]; leaked {
		t.Fatalf("password hash must not be serialized")
	}
	status, _ = c.do(http.MethodGet, withToken(fmt.Sprintf("/auth/%d", bobID), alice), nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("get other user: expected 401, got %d", status)
	}

	self := withToken(fmt.Sprintf("/auth/%d", aliceID), alice)
	status, _ = c.do(http.MethodPatch, self, map[string]any{})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("empty user patch: expected 422, got %d", status)
	}
	status, _ = c.do(http.MethodPatch, self, map[string]any{"username": "bob"})
	if status != http.StatusNotAcceptable {
		t.Fatalf("rename to taken username: expected 406, got %d", status)
	}
	status, _ = c.do(http.MethodPatch, self, map[string]any{"email": "alice@x.com"})
	if status != http.StatusCreated {
		t.Fatalf("user patch: expected 201, got %d", status)
	}

	status, _ = c.do(http.MethodPost, withToken(fmt.Sprintf("/%d/todos", aliceID), alice), map[string]any{
		"title": "orphan", "description": "kept after delete", "priority": 1,
	})
	if status != http.StatusCreated {
		t.Fatalf("create todo: expected 201, got %d", status)
	}

	status, _ = c.do(http.MethodDelete, self, nil)
	if status != http.StatusOK {
		t.Fatalf("delete self: expected 200, got %d", status)
	}
	status, _ = c.do(http.MethodDelete, self, nil)
	if status != http.StatusNotFound {
		t.Fatalf("delete self again: expected 404, got %d", status)
	}
}

func TestHealthz(t *testing.T) {
	c := newTestServer(t)
	if status, _ := c.do(http.MethodGet, "/healthz", nil); status != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", status)
	}
}

func TestNewRequiresSecret(t *testing.T) {
	cfg := config.Config{Database: config.DatabaseConfig{Driver: config.DriverMemory}}
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("expected error without JWT secret")
	}
}

func TestInputBoundsAnswerUnprocessable(t *testing.T) {
	c := newTestServer(t)

	longPassword := strings.Repeat("p", 80)
	status, body := c.do(http.MethodPost, "/auth", map[string]string{"username": "alice", "email": "a@x.com", "password": longPassword})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("register with long password: expected 422, got %d %v", status, body)
	}
	status, _ = c.do(http.MethodPost, "/auth", map[string]string{"username": "alice", "email": strings.Repeat("e", 256), "password": "pw"})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("register with long email: expected 422, got %d", status)
	}

	id := c.register("alice", "a@x.com", "pw1234")
	token := c.token("alice", "pw1234")

	status, body = c.do(http.MethodPatch, withToken(fmt.Sprintf("/auth/%d", id), token), map[string]any{"password": longPassword})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("update with long password: expected 422, got %d %v", status, body)
	}

	status, body = c.do(http.MethodPost, withToken(fmt.Sprintf("/%d/todos", id), token), map[string]any{
		"title": strings.Repeat("t", 300), "description": "valid", "priority": 1,
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("create todo with long title: expected 422, got %d %v", status, body)
	}
}
