package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
	Name() string
}

// HealthHandler handles health check requests
type HealthHandler struct {
	Version            string
	WhatsAppConfigured bool
	GeminiConfigured   bool
	store              Pinger
	ledger             Pinger
}

// NewHealthHandler creates a new health handler. store may be nil.
func NewHealthHandler(version string, whatsappConfigured, geminiConfigured bool, store Pinger) *HealthHandler {
	return &HealthHandler{
		Version:            version,
		WhatsAppConfigured: whatsappConfigured,
		GeminiConfigured:   geminiConfigured,
		store:              store,
	}
}

// WithLedger adds the site-visit ledger to the health output.
func (h *HealthHandler) WithLedger(ledger Pinger) *HealthHandler {
	h.ledger = ledger
	return h
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":              "healthy",
		"whatsapp_configured": h.WhatsAppConfigured,
		"gemini_configured":   h.GeminiConfigured,
		"version":             h.Version,
	}

	if h.store != nil {
		resp["storage"] = dependencyStatus(c.UserContext(), h.store)
	}
	if h.ledger != nil {
		resp["ledger"] = dependencyStatus(c.UserContext(), h.ledger)
	}

	return c.JSON(resp)
}

func dependencyStatus(ctx context.Context, p Pinger) fiber.Map {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := fiber.Map{"backend": p.Name(), "status": "connected"}
	if err := p.Ping(ctx); err != nil {
		status["status"] = "error: " + err.Error()
	}
	return status
}

// Home describes the service.
func (h *HealthHandler) Home(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Brookstone WhatsApp Bot is running!",
		"endpoints": fiber.Map{
			"webhook": "/webhook",
			"health":  "/health",
		},
	})
}
