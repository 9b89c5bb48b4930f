package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
)

// HeaderName is the header carrying the API key.
const HeaderName = "X-API-Key"

// Config holds configuration for the auth middleware.
type Config struct {
	// ApiKey is the expected key. An empty key disables authentication.
	ApiKey string
}

// New returns a middleware rejecting requests without a valid API key.
// The key is read from X-API-Key or from an "Authorization: Bearer" header.
func New(cfg Config) fiber.Handler {
	if cfg.ApiKey == "" {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	validate := func(_ *fiber.Ctx, key string) (bool, error) {
		if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.ApiKey)) == 1 {
			return true, nil
		}
		return false, keyauth.ErrMissingOrMalformedAPIKey
	}
	unauthorized := func(c *fiber.Ctx, _ error) error {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	header := keyauth.New(keyauth.Config{
		KeyLookup:    "header:" + HeaderName,
		Validator:    validate,
		ErrorHandler: unauthorized,
	})
	bearer := keyauth.New(keyauth.Config{
		Validator:    validate,
		ErrorHandler: unauthorized,
	})

	return func(c *fiber.Ctx) error {
		if c.Get(HeaderName) != "" {
			return header(c)
		}
		return bearer(c)
	}
}
