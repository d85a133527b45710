// Package auth registers users and checks their credentials.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"spendly/internal/core"
	"spendly/internal/storage"
)

var (
	ErrUserExists    = errors.New("user already exists")
	ErrNotRegistered = errors.New("user not registered")
	ErrWrongPassword = errors.New("wrong password")
)

// maxPasswordBytes is the longest input bcrypt hashes. Longer passwords are
// truncated, as bcrypt implementations that do not reject them do.
const maxPasswordBytes = 72

func passwordBytes(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

type Service struct {
	users storage.UserStore
	cost  int
}

// NewService returns a Service hashing with the given bcrypt cost. Costs outside
// bcrypt's accepted range fall back to bcrypt.DefaultCost.
func NewService(users storage.UserStore, cost int) *Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{users: users, cost: cost}
}

// Register stores a new user with a hashed password.
func (s *Service) Register(ctx context.Context, username, email, password string) (core.User, error) {
	if strings.TrimSpace(email) == "" {
		return core.User{}, core.ErrEmptyEmail
	}
	if password == "" {
		return core.User{}, core.ErrEmptyPassword
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return core.User{}, ErrUserExists
	case !errors.Is(err, storage.ErrNotFound):
		return core.User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword(passwordBytes(password), s.cost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := core.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    email,
		Password: string(hash),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		// Lost a race with a concurrent registration of the same email.
		if errors.Is(err, storage.ErrDuplicate) {
			return core.User{}, ErrUserExists
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login checks password against the stored hash of email.
func (s *Service) Login(ctx context.Context, email, password string) (core.User, error) {
	if strings.TrimSpace(email) == "" {
		return core.User{}, core.ErrEmptyEmail
	}
	if password == "" {
		return core.User{}, core.ErrEmptyPassword
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return core.User{}, ErrNotRegistered
	}
	if err != nil {
		return core.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), passwordBytes(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return core.User{}, ErrWrongPassword
		}
		return core.User{}, fmt.Errorf("compare password: %w", err)
	}
	return u, nil
}

// Users lists every registered user, password hashes included.
func (s *Service) Users(ctx context.Context) ([]core.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
