package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lifetrack/internal/amqp"
	"lifetrack/internal/repo"
	"lifetrack/internal/repo/memory"
	"lifetrack/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	// dialAMQP is replaced in tests.
	dialAMQP func(url, exchange, queue string) (*amqp.Client, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger:   logger,
		dialAMQP: amqp.NewClient,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		r   repo.Repository
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		r, err = f.createSQLiteRepository(config)
	case MemoryBackend:
		r = memory.New()
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := r.Ping(ctx); err != nil {
		r.Close()
		return nil, fmt.Errorf("backend not reachable: %w", err)
	}

	events := f.connectAMQP(config)
	return &BackendResult{
		Repository: r,
		Events:     events,
		Cleanup:    cleanup(r, events),
	}, nil
}

func (f *DefaultFactory) createSQLiteRepository(config Config) (repo.Repository, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return sqliteRepo, nil
}

// connectAMQP dials the broker when configured. Failure is not fatal: the
// application runs without event publishing.
func (f *DefaultFactory) connectAMQP(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}

func cleanup(r repo.Repository, events *amqp.Client) CleanupFunc {
	return func() error {
		var errs []error
		if events != nil {
			if err := events.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
		}
		if err := r.Close(); err != nil {
			errs = append(errs, fmt.Errorf("repository: %w", err))
		}
		return errors.Join(errs...)
	}
}
