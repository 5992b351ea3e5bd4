package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/brookstone/whatsapp-bot/internal/config"
	"github.com/brookstone/whatsapp-bot/internal/handlers"
	"github.com/brookstone/whatsapp-bot/internal/metrics"
	"github.com/brookstone/whatsapp-bot/internal/middleware"
)

// Handlers groups everything the router mounts. Twilio may be nil when the
// Cloud API transport is selected.
type Handlers struct {
	Webhook *handlers.WebhookHandler
	Twilio  *handlers.TwilioHandler
	Health  *handlers.HealthHandler
	Admin   *handlers.AdminHandler
}

// SetupRoutes configures all routes
func SetupRoutes(app *fiber.App, cfg *config.Config, h Handlers, m *metrics.Metrics, logger *zap.Logger) {
	app.Get("/", h.Health.Home)
	app.Get("/health", h.Health.Check)

	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Gatherer(), promhttp.HandlerOpts{})))
	}

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")
	webhooks.Get("/", h.Webhook.Verify)
	webhooks.Post("/", middleware.ValidateMetaSignature(cfg.WhatsApp.AppSecret, logger), h.Webhook.Receive)

	if h.Twilio != nil {
		webhooks.Post("/twilio",
			middleware.ValidateTwilioSignature(cfg.Twilio.AuthToken, cfg.Server.PublicURL, logger),
			h.Twilio.HandleWebhook,
		)
	}

	// ========== ADMIN ROUTES ==========
	admin := app.Group("/admin", middleware.RequireAdminToken(cfg.Admin.Token))
	admin.Get("/sessions", h.Admin.ListSessions)
	admin.Get("/sessions/:phone", h.Admin.GetSession)
	admin.Delete("/sessions/:phone", h.Admin.ExpireSession)
	admin.Get("/leads", h.Admin.ListLeads)
	admin.Post("/bookings/check", h.Admin.CheckBookings)
}
