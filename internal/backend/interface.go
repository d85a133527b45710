package backend

import (
	"context"

	"spendly/internal/amqp"
	"spendly/internal/storage"
)

type CleanupFunc func() error

// BackendResult holds the opened store and, when AMQP is configured and
// reachable, the publisher client. Cleanup releases both.
type BackendResult struct {
	Store   storage.Store
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string

	PostgresURL string

	MongoURL      string
	MongoDatabase string

	// AMQP is optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MongoBackend    BackendType = "mongo"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend, MongoBackend:
		return true
	default:
		return false
	}
}
