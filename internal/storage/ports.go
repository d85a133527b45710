// Package storage defines the persistence ports of spendly and the helpers
// shared by its SQL backends.
package storage

import (
	"context"
	"errors"

	"spendly/internal/core"
)

var (
	// ErrNotFound is returned when the addressed user, record or budget does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key (user or budget email) is already taken.
	ErrDuplicate = errors.New("duplicate key")
)

// UserStore persists registered users.
type UserStore interface {
	CreateUser(ctx context.Context, u core.User) error
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	ListUsers(ctx context.Context) ([]core.User, error)
}

// RecordStore persists expense records. Records are listed in insertion order.
type RecordStore interface {
	ListRecords(ctx context.Context, email string) ([]core.Record, error)
	InsertRecord(ctx context.Context, r core.Record) error
	// DeleteMatchingRecord removes the first record equal to r on
	// (email, date, category, amount, notes) and reports whether one was removed.
	DeleteMatchingRecord(ctx context.Context, r core.Record) (bool, error)
	// DeleteRecord removes the record id owned by email and returns it.
	DeleteRecord(ctx context.Context, email, id string) (core.Record, error)
	// ReplaceRecord overwrites the record identified by r.ID and r.Email.
	ReplaceRecord(ctx context.Context, r core.Record) error
}

// BudgetStore persists at most one budget per email.
type BudgetStore interface {
	GetBudget(ctx context.Context, email string) (core.Budget, error)
	CreateBudget(ctx context.Context, b core.Budget) error
	UpdateBudget(ctx context.Context, email string, value float64) (core.Budget, error)
}

// Store is a complete backend.
type Store interface {
	UserStore
	RecordStore
	BudgetStore
	Ping(ctx context.Context) error
	Close() error
}
