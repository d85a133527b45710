// Package storetest holds the behaviour every storage.Store must share.
// Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendly/internal/core"
	"spendly/internal/storage"
)

// Run exercises newStore against the storage contract. newStore must return
// an empty store; it is called once per subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("records", func(t *testing.T) { testRecords(t, newStore(t)) })
	t.Run("delete matching", func(t *testing.T) { testDeleteMatching(t, newStore(t)) })
	t.Run("budgets", func(t *testing.T) { testBudgets(t, newStore(t)) })
}

func record(email, date string, amount float64) core.Record {
	return core.Record{
		ID:       uuid.NewString(),
		Email:    email,
		Date:     date,
		Category: core.CategoryFood,
		Amount:   amount,
		Notes:    "lunch",
	}
}

func testUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()

	_, err := s.GetUserByEmail(ctx, "ann@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)

	u := core.User{ID: uuid.NewString(), Username: "ann", Email: "ann@example.com", Password: "hash"}
	require.NoError(t, s.CreateUser(ctx, u))

	dup := u
	dup.ID = uuid.NewString()
	require.ErrorIs(t, s.CreateUser(ctx, dup), storage.ErrDuplicate)

	got, err := s.GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.User{u}, users)
}

func testRecords(t *testing.T, s storage.Store) {
	ctx := context.Background()

	empty, err := s.ListRecords(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Empty(t, empty)

	first := record("ann@example.com", "01-02-2024", 12.5)
	second := record("ann@example.com", "03-02-2024", 40)
	other := record("bob@example.com", "01-02-2024", 7)
	for _, r := range []core.Record{first, second, other} {
		require.NoError(t, s.InsertRecord(ctx, r))
	}

	got, err := s.ListRecords(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, []core.Record{first, second}, got)

	updated := first
	updated.Amount = 99
	updated.Category = core.CategoryGifts
	require.NoError(t, s.ReplaceRecord(ctx, updated))

	missing := updated
	missing.ID = uuid.NewString()
	require.ErrorIs(t, s.ReplaceRecord(ctx, missing), storage.ErrNotFound)

	wrongOwner := updated
	wrongOwner.Email = "bob@example.com"
	require.ErrorIs(t, s.ReplaceRecord(ctx, wrongOwner), storage.ErrNotFound)

	got, err = s.ListRecords(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, []core.Record{updated, second}, got)

	_, err = s.DeleteRecord(ctx, "bob@example.com", second.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
	removed, err := s.DeleteRecord(ctx, "ann@example.com", second.ID)
	require.NoError(t, err)
	assert.Equal(t, second, removed)
	_, err = s.DeleteRecord(ctx, "ann@example.com", second.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	got, err = s.ListRecords(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, []core.Record{updated}, got)
}

func testDeleteMatching(t *testing.T, s storage.Store) {
	ctx := context.Background()

	a := record("ann@example.com", "01-02-2024", 10)
	b := record("ann@example.com", "01-02-2024", 10)
	require.NoError(t, s.InsertRecord(ctx, a))
	require.NoError(t, s.InsertRecord(ctx, b))

	target := core.Record{Email: a.Email, Date: a.Date, Category: a.Category, Amount: a.Amount, Notes: a.Notes}

	deleted, err := s.DeleteMatchingRecord(ctx, target)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := s.ListRecords(ctx, "ann@example.com")
	require.NoError(t, err)
	require.Len(t, got, 1, "only one of two identical records is removed")

	target.Notes = "dinner"
	deleted, err = s.DeleteMatchingRecord(ctx, target)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func testBudgets(t *testing.T, s storage.Store) {
	ctx := context.Background()

	_, err := s.GetBudget(ctx, "ann@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.UpdateBudget(ctx, "ann@example.com", 10)
	require.ErrorIs(t, err, storage.ErrNotFound)

	b := core.Budget{ID: uuid.NewString(), Email: "ann@example.com", Budget: 500}
	require.NoError(t, s.CreateBudget(ctx, b))
	require.ErrorIs(t, s.CreateBudget(ctx, core.Budget{ID: uuid.NewString(), Email: b.Email, Budget: 1}), storage.ErrDuplicate)

	updated, err := s.UpdateBudget(ctx, "ann@example.com", 750)
	require.NoError(t, err)
	assert.Equal(t, b.ID, updated.ID)
	assert.Equal(t, 750.0, updated.Budget)

	got, err := s.GetBudget(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}
