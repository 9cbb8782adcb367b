package auth

import (
	"strings"

	"gas-market/core/security"

	"github.com/gofiber/fiber/v2"
)

// claimsKey is the fiber.Ctx locals key holding verified token claims.
const claimsKey = "auth_claims"

// Verifier validates a bearer token.
type Verifier interface {
	Verify(raw string) (*security.Claims, error)
}

// Config defines the config for the bearer token middleware.
type Config struct {
	// Tokens verifies the bearer token. Required.
	Tokens Verifier
	// Skip lets requests through without a token when it returns true.
	Skip func(c *fiber.Ctx) bool
}

// New returns a middleware requiring a valid `Authorization: Bearer` token.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return c.Next()
		}

		raw, ok := bearer(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return unauthorized(c, "missing bearer token")
		}
		claims, err := cfg.Tokens.Verify(raw)
		if err != nil {
			return unauthorized(c, "could not validate credentials")
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// ClaimsFrom returns the claims stored by the middleware, or nil.
func ClaimsFrom(c *fiber.Ctx) *security.Claims {
	claims, _ := c.Locals(claimsKey).(*security.Claims)
	return claims
}

func bearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *fiber.Ctx, msg string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": msg,
	})
}
