package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"spendly/internal/core"
	"spendly/internal/storage"
	"spendly/internal/summary"
)

// BudgetService manages the single monthly budget of each user.
type BudgetService struct {
	budgets storage.BudgetStore
	records storage.RecordStore
	now     func() time.Time
}

func NewBudgetService(budgets storage.BudgetStore, records storage.RecordStore) *BudgetService {
	return &BudgetService{budgets: budgets, records: records, now: time.Now}
}

// Get returns the budget of email or storage.ErrNotFound.
func (s *BudgetService) Get(ctx context.Context, email string) (core.Budget, error) {
	if email == "" {
		return core.Budget{}, core.ErrEmptyEmail
	}
	b, err := s.budgets.GetBudget(ctx, email)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// Set creates the budget of email when none exists. When one does, nothing is
// written and the existing budget is returned with created false.
func (s *BudgetService) Set(ctx context.Context, email string, value float64) (b core.Budget, created bool, err error) {
	b = core.Budget{ID: uuid.NewString(), Email: email, Budget: value}
	if err := b.Validate(); err != nil {
		return core.Budget{}, false, err
	}

	existing, err := s.budgets.GetBudget(ctx, email)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, storage.ErrNotFound):
		return core.Budget{}, false, fmt.Errorf("get budget: %w", err)
	}

	if err := s.budgets.CreateBudget(ctx, b); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			// A concurrent Set won; report its budget.
			existing, getErr := s.budgets.GetBudget(ctx, email)
			if getErr != nil {
				return core.Budget{}, false, fmt.Errorf("get budget: %w", getErr)
			}
			return existing, false, nil
		}
		return core.Budget{}, false, fmt.Errorf("create budget: %w", err)
	}
	return b, true, nil
}

// Update replaces the value of an existing budget; storage.ErrNotFound otherwise.
func (s *BudgetService) Update(ctx context.Context, email string, value float64) (core.Budget, error) {
	if err := (core.Budget{Email: email, Budget: value}).Validate(); err != nil {
		return core.Budget{}, err
	}
	b, err := s.budgets.UpdateBudget(ctx, email, value)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	return b, nil
}

// Status evaluates the current month's spending of email against its budget.
// A user without a budget is evaluated against zero.
func (s *BudgetService) Status(ctx context.Context, email string) (summary.BudgetStatus, error) {
	if email == "" {
		return summary.BudgetStatus{}, core.ErrEmptyEmail
	}

	var (
		budget  float64
		records []core.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.budgets.GetBudget(gctx, email)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get budget: %w", err)
		}
		budget = b.Budget
		return nil
	})
	g.Go(func() error {
		rs, err := s.records.ListRecords(gctx, email)
		if err != nil {
			return fmt.Errorf("list records: %w", err)
		}
		records = rs
		return nil
	})
	if err := g.Wait(); err != nil {
		return summary.BudgetStatus{}, err
	}

	return summary.EvaluateBudget(budget, records, s.now()), nil
}
