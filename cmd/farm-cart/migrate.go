package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/db"
)

func migrate(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	stdLogger := zap.NewStdLog(logger.Named("migrate"))

	switch cfg.StorageBackend {
	case config.BackendPostgres:
		return db.RunMigrations(cfg.DatabaseDSN, stdLogger)
	case config.BackendSQLite:
		database, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer database.Close()
		return db.RunSQLiteMigrations(database, stdLogger)
	default:
		return fmt.Errorf("storage backend %q has no migrations", cfg.StorageBackend)
	}
}
