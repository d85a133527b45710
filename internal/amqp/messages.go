package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"spendly/internal/core"
)

// Message types carried on the exchange.
const (
	TypeRecordCreated = "record.created"
	TypeRecordUpdated = "record.updated"
	TypeRecordDeleted = "record.deleted"
	TypeBudgetAlert   = "budget.alert"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	// ErrIncompleteMessage marks a well-formed message missing the fields a
	// ledger row is keyed on.
	ErrIncompleteMessage = errors.New("incomplete message")
)

// RecordMessage announces a change to an expense record.
type RecordMessage struct {
	Type      string      `json:"type"`
	Record    core.Record `json:"record"`
	Timestamp time.Time   `json:"timestamp"`
}

// BudgetAlertMessage announces that a user crossed a budget threshold.
type BudgetAlertMessage struct {
	Type      string    `json:"type"`
	Email     string    `json:"email"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Spent     float64   `json:"spent"`
	Budget    float64   `json:"budget"`
	Percent   float64   `json:"percent"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordMessage(eventType string, r core.Record) *RecordMessage {
	return &RecordMessage{Type: eventType, Record: r, Timestamp: time.Now().UTC()}
}

func NewBudgetAlertMessage(email, level, message string, spent, budget float64) *BudgetAlertMessage {
	var percent float64
	if budget > 0 {
		percent = spent / budget * 100
	}
	return &BudgetAlertMessage{
		Type:      TypeBudgetAlert,
		Email:     email,
		Level:     level,
		Message:   message,
		Spent:     spent,
		Budget:    budget,
		Percent:   percent,
		Timestamp: time.Now().UTC(),
	}
}

// Message is a decoded delivery. Exactly one of Record and Alert is set.
type Message struct {
	Record *RecordMessage
	Alert  *BudgetAlertMessage
}

// Type returns the type of the wrapped message.
func (m Message) Type() string {
	switch {
	case m.Record != nil:
		return m.Record.Type
	case m.Alert != nil:
		return m.Alert.Type
	default:
		return ""
	}
}

// DecodeMessage parses a delivery body, dispatching on its "type" field.
func DecodeMessage(data []byte) (Message, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}

	switch head.Type {
	case TypeRecordCreated, TypeRecordUpdated, TypeRecordDeleted:
		var m RecordMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return Message{}, fmt.Errorf("decode record message: %w", err)
		}
		if m.Record.ID == "" || m.Record.Email == "" {
			return Message{}, fmt.Errorf("%w: %s without record id or email", ErrIncompleteMessage, m.Type)
		}
		return Message{Record: &m}, nil
	case TypeBudgetAlert:
		var m BudgetAlertMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return Message{}, fmt.Errorf("decode budget alert: %w", err)
		}
		if m.Email == "" || m.Level == "" {
			return Message{}, fmt.Errorf("%w: budget alert without email or level", ErrIncompleteMessage)
		}
		return Message{Alert: &m}, nil
	default:
		return Message{}, fmt.Errorf("%w %q", ErrUnknownMessageType, head.Type)
	}
}
