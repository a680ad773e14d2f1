package db

import (
	"net/url"
	"testing"

	"github.com/todos-api/apiserver/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "todos",
		Password: "p@ss word",
		DBName:   "todos",
	}

	u, err := url.Parse(DSN(cfg))
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	if u.Host != "db.internal:5433" || u.Path != "/todos" {
		t.Fatalf("unexpected host/path: %s %s", u.Host, u.Path)
	}
	if password, _ := u.User.Password(); password != "p@ss word" {
		t.Fatalf("password not round-tripped: %q", password)
	}
	if got := u.Query().Get("sslmode"); got != "disable" {
		t.Fatalf("expected sslmode disable, got %q", got)
	}

	cfg.UseSSL = true
	u, _ = url.Parse(DSN(cfg))
	if got := u.Query().Get("sslmode"); got != "require" {
		t.Fatalf("expected sslmode require, got %q", got)
	}
}
