// Package postgres stores users, records and budgets in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"spendly/internal/core"
	"spendly/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

// Open migrates the database at url and connects a pool to it.
func Open(ctx context.Context, url string) (*Store, error) {
	if err := migrateDB(url); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func migrateDB(url string) error {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("create pgx driver: %w", err)
	}
	return storage.RunMigrations(migrationsFS, "migrations", "pgx5", driver)
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *Store) CreateUser(ctx context.Context, u core.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password) VALUES ($1, $2, $3, $4)`,
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
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, password FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Username, &u.Email, &u.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, storage.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, username, email, password FROM users ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.User, error) {
		var u core.User
		err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	return users, nil
}

func (s *Store) ListRecords(ctx context.Context, email string) ([]core.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, email, date, category, amount, notes FROM records WHERE email = $1 ORDER BY seq`, email)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Record, error) {
		var r core.Record
		err := row.Scan(&r.ID, &r.Email, &r.Date, &r.Category, &r.Amount, &r.Notes)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	return records, nil
}

func (s *Store) InsertRecord(ctx context.Context, r core.Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO records (id, email, date, category, amount, notes) VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.Email, r.Date, r.Category, r.Amount, r.Notes)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *Store) DeleteMatchingRecord(ctx context.Context, r core.Record) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM records WHERE seq = (
			SELECT seq FROM records
			WHERE email = $1 AND date = $2 AND category = $3 AND amount = $4 AND notes = $5
			ORDER BY seq LIMIT 1
		)`, r.Email, r.Date, r.Category, r.Amount, r.Notes)
	if err != nil {
		return false, fmt.Errorf("delete matching record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DeleteRecord(ctx context.Context, email, id string) (core.Record, error) {
	var r core.Record
	err := s.pool.QueryRow(ctx,
		`DELETE FROM records WHERE id = $1 AND email = $2
		RETURNING id, email, date, category, amount, notes`, id, email).
		Scan(&r.ID, &r.Email, &r.Date, &r.Category, &r.Amount, &r.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Record{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("delete record: %w", err)
	}
	return r, nil
}

func (s *Store) ReplaceRecord(ctx context.Context, r core.Record) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE records SET date = $1, category = $2, amount = $3, notes = $4 WHERE id = $5 AND email = $6`,
		r.Date, r.Category, r.Amount, r.Notes, r.ID, r.Email)
	if err != nil {
		return fmt.Errorf("replace record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetBudget(ctx context.Context, email string) (core.Budget, error) {
	var b core.Budget
	err := s.pool.QueryRow(ctx, `SELECT id, email, budget FROM budgets WHERE email = $1`, email).
		Scan(&b.ID, &b.Email, &b.Budget)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Budget{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (s *Store) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO budgets (id, email, budget) VALUES ($1, $2, $3)`, b.ID, b.Email, b.Budget)
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
	err := s.pool.QueryRow(ctx,
		`UPDATE budgets SET budget = $1 WHERE email = $2 RETURNING id, email, budget`, value, email).
		Scan(&b.ID, &b.Email, &b.Budget)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Budget{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	return b, nil
}

var _ storage.Store = (*Store)(nil)
