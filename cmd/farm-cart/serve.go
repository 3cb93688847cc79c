package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/storage"
)

type publisher interface {
	checkout.Publisher
	Close() error
}

// backend is the opened storage plus whatever must be closed on shutdown.
type backend struct {
	kv       cart.KeyValue
	sequence events.SequenceRepository
	close    func()
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	pub, err := newPublisher(cfg, store.sequence, logger)
	if err != nil {
		return err
	}

	carts := cart.NewProvider(cart.NewSnapshotRepository(store.kv), logger)
	evictCtx, stopEviction := context.WithCancel(ctx)
	defer stopEviction()
	go carts.RunEviction(evictCtx, time.Minute, cfg.SessionIdleTTL)

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:           logger,
		Carts:            carts,
		Checkout:         checkout.NewService(carts, pub, cfg.Currency, logger),
		RequestTimeout:   cfg.RequestTimeout,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("farm-cart-service listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("storage", cfg.StorageBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
	if err := pub.Close(); err != nil {
		logger.Warn("publisher close error", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}

func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, error) {
	stdLogger := zap.NewStdLog(logger.Named("migrate"))

	switch cfg.StorageBackend {
	case config.BackendSQLite:
		database, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if cfg.RunMigrations {
			if err := db.RunSQLiteMigrations(database, stdLogger); err != nil {
				_ = database.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		return &backend{
			kv:       storage.NewSQLite(database),
			sequence: events.NewMemorySequenceRepository(),
			close:    closeSQL(database, logger),
		}, nil

	case config.BackendPostgres:
		if cfg.RunMigrations {
			if err := db.RunMigrations(cfg.DatabaseDSN, stdLogger); err != nil {
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		return &backend{
			kv:       storage.NewPostgres(pool),
			sequence: events.NewPostgresSequenceRepository(pool),
			close:    closePool(pool),
		}, nil

	default:
		logger.Warn("using in-memory storage; carts are lost on restart")
		return &backend{
			kv:       storage.NewMemory(),
			sequence: events.NewMemorySequenceRepository(),
			close:    func() {},
		}, nil
	}
}

func newPublisher(cfg config.Config, seq events.SequenceRepository, logger *zap.Logger) (publisher, error) {
	if cfg.RabbitURL == "" {
		logger.Info("RABBITMQ_URL not set; checkout events will only be logged")
		return events.NewLogPublisher(logger), nil
	}

	conn, err := events.Dial(cfg.RabbitURL)
	if err != nil {
		return nil, err
	}
	pub, err := events.NewRabbitPublisher(conn, seq, events.PublisherOptions{
		PublishEnveloped: cfg.PublishEnveloped,
	})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create cart publisher: %w", err)
	}
	return &connPublisher{RabbitPublisher: pub, conn: conn}, nil
}

// connPublisher closes the broker connection after its channel.
type connPublisher struct {
	*events.RabbitPublisher
	conn interface{ Close() error }
}

func (p *connPublisher) Close() error {
	return errors.Join(p.RabbitPublisher.Close(), p.conn.Close())
}

func closeSQL(database *sql.DB, logger *zap.Logger) func() {
	return func() {
		if err := database.Close(); err != nil {
			logger.Warn("close sqlite", zap.Error(err))
		}
	}
}

func closePool(pool *pgxpool.Pool) func() {
	return pool.Close
}
