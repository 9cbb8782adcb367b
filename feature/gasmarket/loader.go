package gasmarket

import (
	"fmt"

	"gas-market/core/config"
	"gas-market/core/reconcile"
	"gas-market/core/storage"
	"gas-market/feature/gasmarket/parser"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	handler *Handler
}

// NewFeature creates a new gas market feature.
func NewFeature(db *gorm.DB, logger *zap.Logger, opts Options) *Feature {
	svc := NewService(db, logger, opts)
	h := NewHandler(svc)
	return &Feature{handler: h}
}

// OptionsFromConfig builds service options from the application config.
// client may be nil, in which case nothing is archived.
func OptionsFromConfig(cfg *config.Config, client storage.Client) (Options, error) {
	pc, err := parser.NewConfig(cfg.Upload.Encodings...)
	if err != nil {
		return Options{}, fmt.Errorf("upload encodings: %w", err)
	}
	strategy, err := reconcile.ParseStrategy(cfg.Upload.DefaultStrategy)
	if err != nil {
		return Options{}, fmt.Errorf("upload default strategy: %w", err)
	}
	loc, err := cfg.Server.Location()
	if err != nil {
		return Options{}, err
	}

	opts := Options{
		Parser:   pc,
		Strategy: strategy,
		MaxBytes: cfg.Upload.MaxBytes,
		Clock:    reconcile.SystemClock{Location: loc},
		Bucket:   cfg.Storage.Bucket,
	}
	if cfg.Storage.Enabled {
		opts.Storage = client
	}
	return opts, nil
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "gasmarket"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
