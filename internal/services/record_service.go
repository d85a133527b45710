package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"spendly/internal/amqp"
	"spendly/internal/cache"
	"spendly/internal/core"
	"spendly/internal/storage"
	"spendly/internal/summary"
)

// Publisher is the part of the AMQP client the services publish through.
type Publisher interface {
	PublishRecordEvent(ctx context.Context, eventType string, r core.Record) error
	PublishBudgetAlert(ctx context.Context, m *amqp.BudgetAlertMessage) error
}

// RecordService orchestrates record operations across storage and AMQP.
// Publishing is best effort: a write that reached storage is never failed
// because the broker is down.
type RecordService struct {
	records    storage.RecordStore
	budgets    storage.BudgetStore
	publisher  Publisher
	dashboards cache.Cache[summary.Dashboard]
	now        func() time.Time
	newID      func() string
}

// NewRecordService wires a RecordService. publisher and dashboards may be nil.
func NewRecordService(records storage.RecordStore, budgets storage.BudgetStore, publisher Publisher, dashboards cache.Cache[summary.Dashboard]) *RecordService {
	return &RecordService{
		records:    records,
		budgets:    budgets,
		publisher:  publisher,
		dashboards: dashboards,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

func (s *RecordService) List(ctx context.Context, email string) ([]core.Record, error) {
	if email == "" {
		return nil, core.ErrEmptyEmail
	}
	records, err := s.records.ListRecords(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Filtered lists the records of email through the record list filters.
func (s *RecordService) Filtered(ctx context.Context, email string, f summary.RecordFilter) ([]core.Record, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	records, err := s.List(ctx, email)
	if err != nil {
		return nil, err
	}
	return summary.FilterRecords(records, f), nil
}

// Dashboard builds the dashboard of email for the period, serving repeated
// requests from the cache until the user's records change.
func (s *RecordService) Dashboard(ctx context.Context, email string, f summary.PeriodFilter) (summary.Dashboard, error) {
	if err := f.Validate(); err != nil {
		return summary.Dashboard{}, err
	}
	key := dashboardKey(email, f)
	if s.dashboards != nil {
		if d, ok := s.dashboards.Get(key); ok {
			return d, nil
		}
	}

	records, err := s.List(ctx, email)
	if err != nil {
		return summary.Dashboard{}, err
	}
	d := summary.BuildDashboard(records, f)
	if s.dashboards != nil {
		s.dashboards.Set(key, d)
	}
	return d, nil
}

// Key parts are quoted so separators inside emails or filter values cannot
// make two keys collide.
func dashboardKeyPrefix(email string) string {
	return fmt.Sprintf("%q|", email)
}

func dashboardKey(email string, f summary.PeriodFilter) string {
	return dashboardKeyPrefix(email) + fmt.Sprintf("%q|%q", f.Type, f.Value)
}

func (s *RecordService) invalidate(email string) {
	if s.dashboards != nil {
		s.dashboards.DeletePrefix(dashboardKeyPrefix(email))
	}
}

// Add assigns a new identifier to r and stores it.
func (s *RecordService) Add(ctx context.Context, r core.Record) (core.Record, error) {
	if err := r.Validate(); err != nil {
		return core.Record{}, err
	}
	r.ID = s.newID()
	if err := s.records.InsertRecord(ctx, r); err != nil {
		return core.Record{}, fmt.Errorf("insert record: %w", err)
	}
	s.invalidate(r.Email)

	s.publishRecord(ctx, amqp.TypeRecordCreated, r)
	s.checkBudget(ctx, r.Email)
	return r, nil
}

// DeleteMatching removes the first record equal to r on the legacy
// (email, date, category, amount, notes) tuple and reports whether one existed.
func (s *RecordService) DeleteMatching(ctx context.Context, r core.Record) (bool, error) {
	deleted, err := s.records.DeleteMatchingRecord(ctx, r)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	if deleted {
		s.invalidate(r.Email)
		s.publishRecord(ctx, amqp.TypeRecordDeleted, r)
	}
	return deleted, nil
}

// Delete removes the record id owned by email.
func (s *RecordService) Delete(ctx context.Context, email, id string) error {
	removed, err := s.records.DeleteRecord(ctx, email, id)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	s.invalidate(email)
	s.publishRecord(ctx, amqp.TypeRecordDeleted, removed)
	return nil
}

// Update replaces the record id of r.Email with r in a single write.
func (s *RecordService) Update(ctx context.Context, id string, r core.Record) (core.Record, error) {
	if err := r.Validate(); err != nil {
		return core.Record{}, err
	}
	r.ID = id
	if err := s.records.ReplaceRecord(ctx, r); err != nil {
		return core.Record{}, fmt.Errorf("replace record %s: %w", id, err)
	}
	s.invalidate(r.Email)

	s.publishRecord(ctx, amqp.TypeRecordUpdated, r)
	s.checkBudget(ctx, r.Email)
	return r, nil
}

// ReplaceByDeleteInsert is the two-step update older clients perform: the
// old tuple is deleted, then next is added as a new record. If the add fails
// the old record is already gone and the error is returned.
func (s *RecordService) ReplaceByDeleteInsert(ctx context.Context, old, next core.Record) (core.Record, error) {
	if _, err := s.DeleteMatching(ctx, old); err != nil {
		return core.Record{}, err
	}
	added, err := s.Add(ctx, next)
	if err != nil {
		slog.WarnContext(ctx, "Record lost during delete-then-insert update",
			"email", old.Email,
			"date", old.Date,
			"error", err)
		return core.Record{}, fmt.Errorf("re-add record: %w", err)
	}
	return added, nil
}

func (s *RecordService) publishRecord(ctx context.Context, eventType string, r core.Record) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordEvent(ctx, eventType, r); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record event",
			"type", eventType,
			"record_id", r.ID,
			"error", err)
	}
}

// checkBudget publishes an alert when the current month's spending of email
// has reached a budget threshold.
func (s *RecordService) checkBudget(ctx context.Context, email string) {
	if s.publisher == nil || s.budgets == nil {
		return
	}

	b, err := s.budgets.GetBudget(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load budget for alert check", "email", email, "error", err)
		return
	}

	records, err := s.records.ListRecords(ctx, email)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load records for alert check", "email", email, "error", err)
		return
	}

	status := summary.EvaluateBudget(b.Budget, records, s.now())
	if status.Alert == nil {
		return
	}

	msg := amqp.NewBudgetAlertMessage(email, status.Alert.Level, status.Alert.Message, status.Spent, status.Budget)
	if err := s.publisher.PublishBudgetAlert(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget alert",
			"email", email,
			"level", status.Alert.Level,
			"error", err)
	}
}
