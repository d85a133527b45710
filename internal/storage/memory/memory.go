// Package memory is an in-process storage backend used for development and tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"spendly/internal/core"
	"spendly/internal/storage"
)

type Store struct {
	mu      sync.Mutex
	users   []core.User
	records []core.Record
	budgets map[string]core.Budget
}

func New() *Store {
	return &Store{budgets: map[string]core.Budget{}}
}

func (s *Store) CreateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return fmt.Errorf("user %q: %w", u.Email, storage.ErrDuplicate)
		}
	}
	s.users = append(s.users, u)
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, storage.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.User{}, s.users...), nil
}

func (s *Store) ListRecords(_ context.Context, email string) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Record, 0)
	for _, r := range s.records {
		if r.Email == email {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) InsertRecord(_ context.Context, r core.Record) error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("insert record: empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *Store) DeleteMatchingRecord(_ context.Context, r core.Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.records {
		if existing.Matches(r) {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) DeleteRecord(_ context.Context, email, id string) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(email, id)
	if i < 0 {
		return core.Record{}, storage.ErrNotFound
	}
	r := s.records[i]
	s.records = append(s.records[:i], s.records[i+1:]...)
	return r, nil
}

func (s *Store) ReplaceRecord(_ context.Context, r core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(r.Email, r.ID)
	if i < 0 {
		return storage.ErrNotFound
	}
	s.records[i] = r
	return nil
}

// indexOf must be called with mu held.
func (s *Store) indexOf(email, id string) int {
	for i, r := range s.records {
		if r.ID == id && r.Email == email {
			return i
		}
	}
	return -1
}

func (s *Store) GetBudget(_ context.Context, email string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[email]
	if !ok {
		return core.Budget{}, storage.ErrNotFound
	}
	return b, nil
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[b.Email]; ok {
		return fmt.Errorf("budget %q: %w", b.Email, storage.ErrDuplicate)
	}
	s.budgets[b.Email] = b
	return nil
}

func (s *Store) UpdateBudget(_ context.Context, email string, value float64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[email]
	if !ok {
		return core.Budget{}, storage.ErrNotFound
	}
	b.Budget = value
	s.budgets[email] = b
	return b, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

var _ storage.Store = (*Store)(nil)
