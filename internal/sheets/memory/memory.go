// Package memory keeps the ledger in process. It backs the worker when no
// spreadsheet is configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"spendly/internal/sheets"
)

type Ledger struct {
	mu      sync.Mutex
	records []sheets.RecordEntry
	alerts  []sheets.AlertEntry
}

func New() *Ledger {
	return &Ledger{}
}

// AppendRecord stores the entry and returns a synthetic row reference.
func (l *Ledger) AppendRecord(_ context.Context, e sheets.RecordEntry) (string, error) {
	if e.Event == "" {
		return "", fmt.Errorf("record entry without event")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, e)
	return fmt.Sprintf("mem:records:%d", len(l.records)), nil
}

func (l *Ledger) AppendAlert(_ context.Context, e sheets.AlertEntry) (string, error) {
	if e.Level == "" {
		return "", fmt.Errorf("alert entry without level")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.alerts = append(l.alerts, e)
	return fmt.Sprintf("mem:alerts:%d", len(l.alerts)), nil
}

// Records returns a copy of the record rows written so far.
func (l *Ledger) Records() []sheets.RecordEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]sheets.RecordEntry(nil), l.records...)
}

// Alerts returns a copy of the alert rows written so far.
func (l *Ledger) Alerts() []sheets.AlertEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]sheets.AlertEntry(nil), l.alerts...)
}

var _ sheets.LedgerWriter = (*Ledger)(nil)
