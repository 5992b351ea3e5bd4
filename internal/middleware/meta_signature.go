package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const metaSignaturePrefix = "sha256="

// ValidateMetaSignature checks X-Hub-Signature-256 against the app secret.
// An empty appSecret disables the check.
func ValidateMetaSignature(appSecret string, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if appSecret == "" {
			return c.Next()
		}

		header := c.Get("X-Hub-Signature-256")
		if !strings.HasPrefix(header, metaSignaturePrefix) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing signature",
			})
		}

		expected := calculateMetaSignature(appSecret, c.Body())
		if !hmac.Equal([]byte(strings.TrimPrefix(header, metaSignaturePrefix)), []byte(expected)) {
			logger.Warn("invalid webhook signature", zap.String("ip", c.IP()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}

		return c.Next()
	}
}

func calculateMetaSignature(appSecret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(appSecret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
