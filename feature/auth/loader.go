package auth

import (
	"gas-market/core/security"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LoginPath is the only auth route reachable without a token, relative to
// the router the feature is loaded on.
const LoginPath = "/auth/login"

// Feature implements the loader.Feature interface.
type Feature struct {
	handler *Handler
}

// NewFeature creates a new auth feature.
func NewFeature(db *gorm.DB, tokens *security.TokenManager, logger *zap.Logger) *Feature {
	svc := NewService(db, tokens, logger)
	h := NewHandler(svc)
	return &Feature{handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "auth"
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
