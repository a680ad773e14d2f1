package store

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestTranslateError(t *testing.T) {
	unique := &pq.Error{Code: "23505", Constraint: "users_username_key"}
	if err := translateError(unique); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := translateError(fmt.Errorf("insert user: %w", unique)); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected wrapped unique violation to map to ErrDuplicate, got %v", err)
	}

	fk := &pq.Error{Code: "23503"}
	if err := translateError(fk); errors.Is(err, ErrDuplicate) {
		t.Fatalf("foreign key violation must not map to ErrDuplicate")
	}
	if err := translateError(sql.ErrConnDone); !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("expected passthrough, got %v", err)
	}
	if err := translateError(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
