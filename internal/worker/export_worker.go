package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendly/internal/amqp"
	"spendly/internal/sheets"
)

// ExportWorker mirrors record events and budget alerts into the ledger.
type ExportWorker struct {
	ledger sheets.LedgerWriter
}

func NewExportWorker(ledger sheets.LedgerWriter) *ExportWorker {
	return &ExportWorker{ledger: ledger}
}

// HandleMessage writes one decoded message to the ledger. A returned error
// makes the consumer requeue the delivery.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg amqp.Message) error {
	switch {
	case msg.Record != nil:
		return w.handleRecord(ctx, msg.Record)
	case msg.Alert != nil:
		return w.handleAlert(ctx, msg.Alert)
	default:
		return errors.New("empty message")
	}
}

func (w *ExportWorker) handleRecord(ctx context.Context, m *amqp.RecordMessage) error {
	ref, err := w.ledger.AppendRecord(ctx, sheets.RecordEntry{
		Timestamp: m.Timestamp,
		Event:     m.Type,
		Record:    m.Record,
	})
	if err != nil {
		return fmt.Errorf("append record row: %w", err)
	}

	slog.InfoContext(ctx, "Exported record event",
		"type", m.Type,
		"record_id", m.Record.ID,
		"row", ref)
	return nil
}

func (w *ExportWorker) handleAlert(ctx context.Context, m *amqp.BudgetAlertMessage) error {
	ref, err := w.ledger.AppendAlert(ctx, sheets.AlertEntry{
		Timestamp: m.Timestamp,
		Email:     m.Email,
		Level:     m.Level,
		Spent:     m.Spent,
		Budget:    m.Budget,
		Percent:   m.Percent,
	})
	if err != nil {
		return fmt.Errorf("append alert row: %w", err)
	}

	slog.InfoContext(ctx, "Exported budget alert",
		"email", m.Email,
		"level", m.Level,
		"row", ref)
	return nil
}
