package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/brookstone/whatsapp-bot/internal/metrics"
	"github.com/brookstone/whatsapp-bot/internal/services"
)

// Dispatcher turns an inbound text into the bot's reply.
type Dispatcher interface {
	Dispatch(ctx context.Context, from, text string) services.Outcome
}

// WebhookPayload is the WhatsApp Cloud API notification envelope.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []InboundMessage `json:"messages"`
}

// InboundMessage is one user message. Only the fields the bot reads are decoded.
type InboundMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Button *struct {
		Text string `json:"text"`
	} `json:"button,omitempty"`
	Interactive *struct {
		ButtonReply *struct {
			Title string `json:"title"`
		} `json:"button_reply,omitempty"`
		ListReply *struct {
			Title string `json:"title"`
		} `json:"list_reply,omitempty"`
	} `json:"interactive,omitempty"`
}

// Content returns the user-visible text of the message, if any.
func (m InboundMessage) Content() string {
	switch m.Type {
	case "text":
		if m.Text != nil {
			return m.Text.Body
		}
	case "button":
		if m.Button != nil {
			return m.Button.Text
		}
	case "interactive":
		if m.Interactive == nil {
			return ""
		}
		if m.Interactive.ButtonReply != nil {
			return m.Interactive.ButtonReply.Title
		}
		if m.Interactive.ListReply != nil {
			return m.Interactive.ListReply.Title
		}
	}
	return ""
}

// WebhookHandler handles WhatsApp Cloud API webhook requests
type WebhookHandler struct {
	dispatcher  Dispatcher
	messenger   services.Messenger
	verifyToken string
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(dispatcher Dispatcher, messenger services.Messenger, verifyToken string, logger *zap.Logger, m *metrics.Metrics) *WebhookHandler {
	return &WebhookHandler{
		dispatcher:  dispatcher,
		messenger:   messenger,
		verifyToken: verifyToken,
		logger:      logger,
		metrics:     m,
	}
}

// Verify answers Meta's subscription handshake.
func (h *WebhookHandler) Verify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && h.verifyToken != "" && token == h.verifyToken {
		h.logger.Info("webhook verified")
		return c.Status(fiber.StatusOK).SendString(challenge)
	}

	h.logger.Warn("webhook verification failed", zap.String("mode", mode))
	return c.Status(fiber.StatusForbidden).SendString("Forbidden")
}

// Receive processes incoming WhatsApp messages. It always acknowledges with
// 200 so the platform does not redeliver.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	var payload WebhookPayload
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		h.logger.Warn("undecodable webhook payload", zap.Error(err))
		return ack(c)
	}

	ctx := c.UserContext()
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				h.handleMessage(ctx, msg)
			}
		}
	}

	return ack(c)
}

func (h *WebhookHandler) handleMessage(ctx context.Context, msg InboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic while handling message",
				zap.String("message_id", msg.ID),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()

	h.metrics.RecordMessage(msg.Type)

	text := msg.Content()
	if text == "" {
		h.logger.Warn("no text found in message", zap.String("type", msg.Type), zap.String("message_id", msg.ID))
		return
	}
	if msg.From == "" {
		h.logger.Warn("message without sender", zap.String("message_id", msg.ID))
		return
	}

	h.logger.Info("message received", zap.String("from", msg.From), zap.String("type", msg.Type))

	if msg.ID != "" {
		if err := h.messenger.MarkRead(ctx, msg.ID); err != nil {
			h.logger.Warn("failed to mark message as read", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}

	deliver(ctx, h.dispatcher, h.messenger, h.logger, msg.From, text)
}

// deliver dispatches text and sends the reply, if any.
func deliver(ctx context.Context, dispatcher Dispatcher, messenger services.Messenger, logger *zap.Logger, from, text string) {
	outcome := dispatcher.Dispatch(ctx, from, text)
	if outcome.Reply == "" {
		return
	}
	if err := messenger.SendText(ctx, from, outcome.Reply); err != nil {
		logger.Error("failed to send reply", zap.String("to", from), zap.String("intent", outcome.Intent), zap.Error(err))
	}
}

func ack(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}
