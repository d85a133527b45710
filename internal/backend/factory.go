package backend

import (
	"context"
	"errors"
	"fmt"

	"spendly/internal/amqp"
	"spendly/internal/log"
	"spendly/internal/storage"
	"spendly/internal/storage/memory"
	"spendly/internal/storage/mongo"
	"spendly/internal/storage/postgres"
	"spendly/internal/storage/sqlite"
)

type DefaultFactory struct {
	logger *log.Logger
	// dialAMQP is swapped in tests
	dialAMQP func(url, exchange, queue string) (*amqp.Client, error)
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger:   logger.WithComponent(log.ComponentBackend),
		dialAMQP: amqp.NewClient,
	}
}

// CreateBackend opens the configured store and, if AMQP_URL is set, connects
// the publisher. An unreachable broker is logged and the backend still starts.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
			amqpClient = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	f.logger.Info("Initialized storage backend",
		"backend", config.Type.String(),
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Store: store,
		AMQP:  amqpClient,
		Cleanup: func() error {
			var errs []error
			if amqpClient != nil {
				errs = append(errs, amqpClient.Close())
			}
			errs = append(errs, store.Close())
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (storage.Store, error) {
	switch config.Type {
	case MemoryBackend:
		f.logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.New(), nil
	case SQLiteBackend:
		store, err := sqlite.Open(ctx, config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Opened SQLite store", "db_path", config.SQLiteDBPath)
		return store, nil
	case PostgresBackend:
		store, err := postgres.Open(ctx, config.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		return store, nil
	case MongoBackend:
		store, err := mongo.Open(ctx, config.MongoURL, config.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Mongo store: %w", err)
		}
		f.logger.Info("Opened Mongo store", "database", config.MongoDatabase)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
