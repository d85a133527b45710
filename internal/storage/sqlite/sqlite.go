// Package sqlite stores users, records and budgets in an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"spendly/internal/core"
	"spendly/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Store struct {
	db *sql.DB
}

// Open creates the database file if needed, applies migrations and returns a ready store.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Migrations get their own connection: closing the migrate instance closes it.
	if err := migrateDB(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

func migrateDB(dbPath string) error {
	mdb, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	driver, err := migratesqlite.WithInstance(mdb, &migratesqlite.Config{})
	if err != nil {
		mdb.Close()
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	if err := storage.RunMigrations(migrationsFS, "migrations", "sqlite", driver); err != nil {
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func (s *Store) CreateUser(ctx context.Context, u core.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.Password)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %q: %w", u.Email, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	var u core.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Username, &u.Email, &u.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, storage.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username, email, password FROM users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]core.User, 0)
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Password); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) ListRecords(ctx context.Context, email string) ([]core.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, date, category, amount, notes FROM records WHERE email = ? ORDER BY seq`, email)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := make([]core.Record, 0)
	for rows.Next() {
		var r core.Record
		if err := rows.Scan(&r.ID, &r.Email, &r.Date, &r.Category, &r.Amount, &r.Notes); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) InsertRecord(ctx context.Context, r core.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (id, email, date, category, amount, notes) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Email, r.Date, r.Category, r.Amount, r.Notes)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *Store) DeleteMatchingRecord(ctx context.Context, r core.Record) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM records WHERE seq = (
			SELECT seq FROM records
			WHERE email = ? AND date = ? AND category = ? AND amount = ? AND notes = ?
			ORDER BY seq LIMIT 1
		)`, r.Email, r.Date, r.Category, r.Amount, r.Notes)
	if err != nil {
		return false, fmt.Errorf("delete matching record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) DeleteRecord(ctx context.Context, email, id string) (core.Record, error) {
	var r core.Record
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM records WHERE id = ? AND email = ?
		RETURNING id, email, date, category, amount, notes`, id, email).
		Scan(&r.ID, &r.Email, &r.Date, &r.Category, &r.Amount, &r.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("delete record: %w", err)
	}
	return r, nil
}

func (s *Store) ReplaceRecord(ctx context.Context, r core.Record) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET date = ?, category = ?, amount = ?, notes = ? WHERE id = ? AND email = ?`,
		r.Date, r.Category, r.Amount, r.Notes, r.ID, r.Email)
	if err != nil {
		return fmt.Errorf("replace record: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetBudget(ctx context.Context, email string) (core.Budget, error) {
	var b core.Budget
	err := s.db.QueryRowContext(ctx, `SELECT id, email, budget FROM budgets WHERE email = ?`, email).
		Scan(&b.ID, &b.Email, &b.Budget)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (s *Store) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO budgets (id, email, budget) VALUES (?, ?, ?)`, b.ID, b.Email, b.Budget)
	if isUniqueViolation(err) {
		return fmt.Errorf("budget %q: %w", b.Email, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (s *Store) UpdateBudget(ctx context.Context, email string, value float64) (core.Budget, error) {
	var b core.Budget
	err := s.db.QueryRowContext(ctx,
		`UPDATE budgets SET budget = ? WHERE email = ? RETURNING id, email, budget`, value, email).
		Scan(&b.ID, &b.Email, &b.Budget)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	return b, nil
}

var _ storage.Store = (*Store)(nil)
