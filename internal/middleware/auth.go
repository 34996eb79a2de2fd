package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/aerolens/aerolens/internal/config"
	"github.com/aerolens/aerolens/internal/logging"
	"github.com/aerolens/aerolens/internal/models"
)

// MinAPIKeyLength is the minimum required length for API keys
const MinAPIKeyLength = 32

// ValidateAPIKey checks if an API key meets the security requirements
func ValidateAPIKey(key string) bool {
	if len(key) < MinAPIKeyLength {
		return false
	}
	return strings.TrimSpace(key) != ""
}

// APIKeyAuth creates an API key authentication middleware.
// Keys are read from X-API-Key, "Authorization: Bearer <key>" or a bare Authorization header.
func APIKeyAuth(logger *logging.Logger, cfg config.AuthConfig) fiber.Handler {
	if !cfg.Enabled {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	keys := make([][]byte, 0, len(cfg.APIKeys))
	for _, key := range cfg.APIKeys {
		if key == "" {
			continue
		}
		if !ValidateAPIKey(key) {
			logger.Warn("API key does not meet security requirements",
				"key_length", len(key),
				"min_required", MinAPIKeyLength,
				"key_prefix", maskAPIKey(key),
			)
			continue
		}
		keys = append(keys, []byte(key))
	}

	if len(keys) == 0 {
		logger.Error("No valid API keys configured, every /v1 request will be rejected",
			"total_keys", len(cfg.APIKeys),
			"min_required_length", MinAPIKeyLength,
		)
	}

	return func(c *fiber.Ctx) error {
		apiKey := c.Get("X-API-Key")
		if apiKey == "" {
			if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
				if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
					apiKey = after
				} else {
					apiKey = authHeader
				}
			}
		}

		if apiKey == "" {
			logger.Warn("API key missing",
				"path", c.Path(),
				"method", c.Method(),
				"ip", c.IP(),
			)
			return unauthorized(c, "API key is required. Provide it via X-API-Key header or Authorization header.")
		}

		if !matchKey(keys, apiKey) {
			logger.Warn("Invalid API key",
				"path", c.Path(),
				"method", c.Method(),
				"ip", c.IP(),
				"api_key_prefix", maskAPIKey(apiKey),
			)
			return unauthorized(c, "Invalid API key.")
		}

		return c.Next()
	}
}

// matchKey compares against every key in constant time
func matchKey(keys [][]byte, candidate string) bool {
	found := 0
	for _, key := range keys {
		found |= subtle.ConstantTimeCompare(key, []byte(candidate))
	}
	return found == 1
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "UNAUTHORIZED",
			Message: message,
		},
	})
}

// maskAPIKey masks API key for logging (show only first 4 chars)
func maskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}
