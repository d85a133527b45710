// Package sheets defines the ledger that mirrors record events and budget
// alerts into a spreadsheet.
package sheets

import (
	"context"
	"time"

	"spendly/internal/core"
)

type (
	// RecordEntry is one record event row of the ledger.
	RecordEntry struct {
		Timestamp time.Time
		Event     string
		Record    core.Record
	}

	// AlertEntry is one budget alert row of the ledger.
	AlertEntry struct {
		Timestamp time.Time
		Email     string
		Level     string
		Spent     float64
		Budget    float64
		Percent   float64
	}

	// LedgerWriter appends rows to the ledger and returns a reference to the written row.
	LedgerWriter interface {
		AppendRecord(ctx context.Context, e RecordEntry) (rowRef string, err error)
		AppendAlert(ctx context.Context, e AlertEntry) (rowRef string, err error)
	}
)

// Column headers written on the first row of each ledger sheet.
var (
	RecordHeader = []string{"timestamp", "event", "id", "email", "date", "category", "amount", "notes"}
	AlertHeader  = []string{"timestamp", "email", "level", "spent", "budget", "percent"}
)
