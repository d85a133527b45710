package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"spendly/internal/core"
	"spendly/internal/storage"
	"spendly/internal/storage/storetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "spendly.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store { return openTemp(t) })
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spendly.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s.CreateUser(ctx, core.User{ID: "u1", Username: "ann", Email: "ann@example.com", Password: "h"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s.Close()

	if _, err := s.GetUserByEmail(ctx, "ann@example.com"); err != nil {
		t.Fatalf("user lost across reopen: %v", err)
	}
}
