package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/brookstone/whatsapp-bot/internal/metrics"
	"github.com/brookstone/whatsapp-bot/internal/services"
)

// TwilioWebhookPayload is the form body Twilio posts for inbound WhatsApp messages
type TwilioWebhookPayload struct {
	MessageSid string `form:"MessageSid"`
	AccountSid string `form:"AccountSid"`
	From       string `form:"From"` // WhatsApp number (whatsapp:+919876543210)
	To         string `form:"To"`   // Your Twilio number
	Body       string `form:"Body"` // Message text
	NumMedia   string `form:"NumMedia"`
}

// TwilioHandler handles inbound messages delivered through Twilio
type TwilioHandler struct {
	dispatcher Dispatcher
	messenger  services.Messenger
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewTwilioHandler creates a new Twilio webhook handler
func NewTwilioHandler(dispatcher Dispatcher, messenger services.Messenger, logger *zap.Logger, m *metrics.Metrics) *TwilioHandler {
	return &TwilioHandler{
		dispatcher: dispatcher,
		messenger:  messenger,
		logger:     logger,
		metrics:    m,
	}
}

// HandleWebhook processes one Twilio message callback. Status callbacks
// carry no body and are acknowledged without dispatch.
func (h *TwilioHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		h.logger.Warn("invalid twilio webhook payload", zap.Error(err))
		return c.SendStatus(fiber.StatusOK)
	}

	h.metrics.RecordMessage("twilio")

	text := strings.TrimSpace(payload.Body)
	from := strings.TrimPrefix(strings.TrimPrefix(payload.From, "whatsapp:"), "+")
	if text == "" || from == "" {
		h.logger.Debug("twilio callback without message body", zap.String("sid", payload.MessageSid))
		return c.SendStatus(fiber.StatusOK)
	}

	h.logger.Info("message received", zap.String("from", from), zap.String("type", "twilio"))
	deliver(c.UserContext(), h.dispatcher, h.messenger, h.logger, from, payload.Body)

	// Acknowledge webhook receipt
	return c.SendStatus(fiber.StatusOK)
}
