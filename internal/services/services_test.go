package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendly/internal/amqp"
	"spendly/internal/cache"
	"spendly/internal/core"
	"spendly/internal/storage"
	"spendly/internal/storage/memory"
	"spendly/internal/summary"
)

type fakePublisher struct {
	mu     sync.Mutex
	events  []string
	records []core.Record
	alerts []*amqp.BudgetAlertMessage
	err    error
}

func (p *fakePublisher) PublishRecordEvent(_ context.Context, eventType string, r core.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	p.records = append(p.records, r)
	return p.err
}

func (p *fakePublisher) PublishBudgetAlert(_ context.Context, m *amqp.BudgetAlertMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, m)
	return p.err
}

var march = time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC)

func newRecordService(store *memory.Store, pub Publisher) *RecordService {
	s := NewRecordService(store, store, pub, cache.NewLRUCache[summary.Dashboard](16, time.Minute))
	s.now = func() time.Time { return march }
	return s
}

func lunch(amount float64) core.Record {
	return core.Record{Email: "ann@example.com", Date: "05-03-2024", Category: core.CategoryFood, Amount: amount, Notes: "lunch"}
}

func TestRecordServiceAdd(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{}
	s := newRecordService(store, pub)
	ctx := context.Background()

	added, err := s.Add(ctx, lunch(10))
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)

	other, err := s.Add(ctx, lunch(10))
	require.NoError(t, err)
	assert.NotEqual(t, added.ID, other.ID, "identical tuples still get distinct identifiers")

	records, err := s.List(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, []string{amqp.TypeRecordCreated, amqp.TypeRecordCreated}, pub.events)
	assert.Empty(t, pub.alerts, "no budget set, no alert")
}

func TestRecordServiceAddValidation(t *testing.T) {
	s := newRecordService(memory.New(), nil)
	r := lunch(10)
	r.Email = ""
	_, err := s.Add(context.Background(), r)
	assert.ErrorIs(t, err, core.ErrEmptyEmail)

	_, err = s.Add(context.Background(), lunch(-1))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestRecordServicePublishFailureDoesNotFailWrite(t *testing.T) {
	store := memory.New()
	s := newRecordService(store, &fakePublisher{err: errors.New("broker down")})

	_, err := s.Add(context.Background(), lunch(10))
	require.NoError(t, err)

	records, _ := store.ListRecords(context.Background(), "ann@example.com")
	assert.Len(t, records, 1)
}

func TestRecordServiceDeleteMatching(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{}
	s := newRecordService(store, pub)
	ctx := context.Background()

	_, err := s.Add(ctx, lunch(10))
	require.NoError(t, err)

	deleted, err := s.DeleteMatching(ctx, lunch(10))
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeleteMatching(ctx, lunch(10))
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.Equal(t, []string{amqp.TypeRecordCreated, amqp.TypeRecordDeleted}, pub.events)
}

func TestRecordServiceUpdateAndDelete(t *testing.T) {
	store := memory.New()
	s := newRecordService(store, nil)
	ctx := context.Background()

	added, err := s.Add(ctx, lunch(10))
	require.NoError(t, err)

	changed := lunch(25)
	changed.Notes = "dinner"
	updated, err := s.Update(ctx, added.ID, changed)
	require.NoError(t, err)
	assert.Equal(t, added.ID, updated.ID)

	records, _ := s.List(ctx, "ann@example.com")
	require.Len(t, records, 1)
	assert.Equal(t, 25.0, records[0].Amount)
	assert.Equal(t, "dinner", records[0].Notes)

	_, err = s.Update(ctx, "missing", changed)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "ann@example.com", added.ID))
	assert.ErrorIs(t, s.Delete(ctx, "ann@example.com", added.ID), storage.ErrNotFound)
}

func TestRecordServiceDeletePublishesRemovedRecord(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{}
	s := newRecordService(store, pub)
	ctx := context.Background()

	added, err := s.Add(ctx, lunch(42))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "ann@example.com", added.ID))

	require.Len(t, pub.records, 2)
	assert.Equal(t, amqp.TypeRecordDeleted, pub.events[1])
	assert.Equal(t, added, pub.records[1], "deleted event carries the whole record")

	err = s.Delete(ctx, "ann@example.com", added.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Len(t, pub.records, 2, "nothing published for a missing record")
}

func TestDashboardKeysDoNotCollide(t *testing.T) {
	a := dashboardKey("a|day", summary.PeriodFilter{Type: summary.PeriodDay})
	b := dashboardKey("a", summary.PeriodFilter{Type: summary.PeriodDay, Value: "day|"})
	assert.NotEqual(t, a, b)

	assert.True(t, strings.HasPrefix(b, dashboardKeyPrefix("a")))
	assert.False(t, strings.HasPrefix(a, dashboardKeyPrefix("a")), "another user's entries survive invalidation")
}

func TestDashboardCacheIsPerUser(t *testing.T) {
	s := newRecordService(memory.New(), nil)
	ctx := context.Background()

	r := lunch(10)
	r.Email = "a|day"
	_, err := s.Add(ctx, r)
	require.NoError(t, err)

	d, err := s.Dashboard(ctx, "a|day", summary.PeriodFilter{Type: summary.PeriodDay})
	require.NoError(t, err)
	assert.Equal(t, 10.0, d.Total)

	d, err = s.Dashboard(ctx, "a", summary.PeriodFilter{Type: summary.PeriodDay, Value: "day|"})
	require.NoError(t, err)
	assert.Zero(t, d.Total)
}

type failingInsertStore struct {
	*memory.Store
}

func (failingInsertStore) InsertRecord(context.Context, core.Record) error {
	return errors.New("disk full")
}

func TestReplaceByDeleteInsertLosesRecordOnFailure(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	seeded := lunch(10)
	seeded.ID = "r1"
	require.NoError(t, store.InsertRecord(ctx, seeded))

	s := NewRecordService(failingInsertStore{store}, store, nil, nil)

	var err error
	require.NotPanics(t, func() {
		_, err = s.ReplaceByDeleteInsert(ctx, lunch(10), lunch(20))
	})
	require.Error(t, err)

	records, listErr := store.ListRecords(ctx, "ann@example.com")
	require.NoError(t, listErr)
	assert.Empty(t, records, "the original record is gone after a failed re-add")
}

func TestReplaceByDeleteInsert(t *testing.T) {
	store := memory.New()
	s := newRecordService(store, nil)
	ctx := context.Background()

	_, err := s.Add(ctx, lunch(10))
	require.NoError(t, err)

	next, err := s.ReplaceByDeleteInsert(ctx, lunch(10), lunch(20))
	require.NoError(t, err)

	records, _ := s.List(ctx, "ann@example.com")
	require.Len(t, records, 1)
	assert.Equal(t, next, records[0])
}

func TestRecordServicePublishesBudgetAlert(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{}
	s := newRecordService(store, pub)
	ctx := context.Background()
	require.NoError(t, store.CreateBudget(ctx, core.Budget{ID: "b1", Email: "ann@example.com", Budget: 100}))

	_, err := s.Add(ctx, lunch(50))
	require.NoError(t, err)
	assert.Empty(t, pub.alerts)

	_, err = s.Add(ctx, lunch(30))
	require.NoError(t, err)
	require.Len(t, pub.alerts, 1)
	assert.Equal(t, summary.AlertOver75, pub.alerts[0].Level)
	assert.Equal(t, 80.0, pub.alerts[0].Spent)

	lastMonth := lunch(500)
	lastMonth.Date = "05-02-2024"
	_, err = s.Add(ctx, lastMonth)
	require.NoError(t, err)
	require.Len(t, pub.alerts, 2, "still over 75% for March")
	assert.Equal(t, summary.AlertOver75, pub.alerts[1].Level)
}

func TestRecordServiceDashboardCache(t *testing.T) {
	store := memory.New()
	s := newRecordService(store, nil)
	ctx := context.Background()
	f := summary.PeriodFilter{Type: summary.PeriodMonth, Value: "03-2024"}

	_, err := s.Add(ctx, lunch(10))
	require.NoError(t, err)

	d, err := s.Dashboard(ctx, "ann@example.com", f)
	require.NoError(t, err)
	assert.Equal(t, 10.0, d.Total)

	// A write behind the service's back is not seen until the entry is invalidated.
	hidden := lunch(5)
	hidden.ID = "hidden"
	require.NoError(t, store.InsertRecord(ctx, hidden))
	d, _ = s.Dashboard(ctx, "ann@example.com", f)
	assert.Equal(t, 10.0, d.Total)

	_, err = s.Add(ctx, lunch(1))
	require.NoError(t, err)
	d, _ = s.Dashboard(ctx, "ann@example.com", f)
	assert.Equal(t, 16.0, d.Total)

	_, err = s.Dashboard(ctx, "ann@example.com", summary.PeriodFilter{Type: "week"})
	assert.Error(t, err)
}

func TestRecordServiceFiltered(t *testing.T) {
	s := newRecordService(memory.New(), nil)
	ctx := context.Background()
	for _, amount := range []float64{50, 150, 600} {
		_, err := s.Add(ctx, lunch(amount))
		require.NoError(t, err)
	}

	got, err := s.Filtered(ctx, "ann@example.com", summary.RecordFilter{Price: summary.PriceMiddle})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 150.0, got[0].Amount)

	_, err = s.Filtered(ctx, "ann@example.com", summary.RecordFilter{Category: "rent"})
	assert.ErrorIs(t, err, core.ErrUnknownCategory)
}

func TestBudgetServiceSetTwiceKeepsFirst(t *testing.T) {
	store := memory.New()
	s := NewBudgetService(store, store)
	ctx := context.Background()

	b, created, err := s.Set(ctx, "ann@example.com", 100)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 100.0, b.Budget)

	b, created, err = s.Set(ctx, "ann@example.com", 200)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 100.0, b.Budget)

	got, err := s.Get(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Budget)

	updated, err := s.Update(ctx, "ann@example.com", 200)
	require.NoError(t, err)
	assert.Equal(t, 200.0, updated.Budget)

	got, err = s.Get(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, 200.0, got.Budget)
}

func TestBudgetServiceMissing(t *testing.T) {
	store := memory.New()
	s := NewBudgetService(store, store)
	ctx := context.Background()

	_, err := s.Get(ctx, "ann@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.Update(ctx, "ann@example.com", 10)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, _, err = s.Set(ctx, "ann@example.com", -5)
	assert.ErrorIs(t, err, core.ErrInvalidBudget)
}

func TestBudgetServiceStatus(t *testing.T) {
	store := memory.New()
	s := NewBudgetService(store, store)
	s.now = func() time.Time { return march }
	ctx := context.Background()

	_, _, err := s.Set(ctx, "ann@example.com", 200)
	require.NoError(t, err)
	for i, amount := range []float64{120, 70} {
		r := lunch(amount)
		r.ID = string(rune('a' + i))
		require.NoError(t, store.InsertRecord(ctx, r))
	}

	status, err := s.Status(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, 190.0, status.Spent)
	assert.Equal(t, 10.0, status.Remaining)
	require.NotNil(t, status.Alert)
	assert.Equal(t, summary.AlertOver90, status.Alert.Level)

	status, err = s.Status(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Zero(t, status.Budget)
	assert.Nil(t, status.Alert)
}
