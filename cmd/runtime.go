package cmd

import (
	"context"
	"fmt"

	"gas-market/core/config"
	"gas-market/core/database"
	"gas-market/core/logger"
	"gas-market/core/storage"
	authmodels "gas-market/feature/auth/models"
	gasmodels "gas-market/feature/gasmarket/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runtime holds the shared dependencies every command needs.
type runtime struct {
	cfg    *config.Config
	log    *zap.Logger
	db     *gorm.DB
	client storage.Client
}

// tables lists the models managed by AutoMigrate.
var tables = []any{&gasmodels.Record{}, &authmodels.User{}}

// bootstrap loads and validates configuration, then connects the database and,
// when enabled, object storage.
func bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	l.Info("Connected to database", zap.String("driver", cfg.Database.Driver), zap.String("name", cfg.Database.Name))

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, tables...); err != nil {
			return nil, err
		}
		l.Info("Schema migrated")
	}

	rt := &runtime{cfg: cfg, log: l, db: db}
	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to storage: %w", err)
		}
		if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			return nil, err
		}
		rt.client = client
		l.Info("Archiving enabled", zap.String("bucket", cfg.Storage.Bucket))
	}
	return rt, nil
}

// close releases the database connection and flushes the logger.
func (rt *runtime) close() {
	if sqlDB, err := rt.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = rt.log.Sync()
}
