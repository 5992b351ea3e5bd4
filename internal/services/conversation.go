package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/brookstone/whatsapp-bot/internal/metrics"
	"github.com/brookstone/whatsapp-bot/internal/models"
	"github.com/brookstone/whatsapp-bot/internal/storage"
)

// Intents reported by Dispatch.
const (
	IntentBrochureNumber   = "brochure_number"
	IntentBrochure         = "brochure"
	IntentBrochureFollowUp = "brochure_followup"
	IntentAgentContact     = "agent_contact"
	IntentBooking          = "booking"
	IntentBookingStep      = "booking_step"
	IntentAnswer           = "answer"
)

// Answerer produces free-text answers. It never fails.
type Answerer interface {
	Answer(ctx context.Context, prompt string) string
}

// ConversationConfig holds the dispatcher's behaviour settings.
type ConversationConfig struct {
	BrochureMediaID  string
	BrochureFilename string
	// GuidedBooking collects booking details in chat instead of linking the form.
	GuidedBooking bool
}

// Outcome is the result of handling one inbound message. An empty Reply
// means nothing should be sent, for example when a document was the reply.
type Outcome struct {
	Intent string
	Reply  string
}

// ConversationService routes inbound messages through the reply rules.
type ConversationService struct {
	sessions  *SessionManager
	messenger Messenger
	prompts   *PromptBuilder
	answers   Answerer
	leads     storage.Store
	templates *Templates
	cfg       ConversationConfig
	logger    *zap.Logger
	metrics   *metrics.Metrics

	rules []rule
}

// NewConversationService wires the dispatcher. leads may be nil.
func NewConversationService(
	sessions *SessionManager,
	messenger Messenger,
	prompts *PromptBuilder,
	answers Answerer,
	leads storage.Store,
	templates *Templates,
	cfg ConversationConfig,
	logger *zap.Logger,
	m *metrics.Metrics,
) *ConversationService {
	c := &ConversationService{
		sessions:  sessions,
		messenger: messenger,
		prompts:   prompts,
		answers:   answers,
		leads:     leads,
		templates: templates,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
	}
	c.rules = c.buildRules()
	return c
}

// turn is the per-message view the rules work on.
type turn struct {
	from    string
	text    string
	lower   string
	session *models.Session
}

// Dispatch handles one inbound text from a sender and returns the reply to send.
func (c *ConversationService) Dispatch(ctx context.Context, from, text string) Outcome {
	session, release := c.sessions.Acquire(from)
	defer release()

	session.Language = DetectLanguage(text)
	session.AddTurn(text, true)

	t := &turn{
		from:    from,
		text:    strings.TrimSpace(text),
		lower:   strings.ToLower(strings.TrimSpace(text)),
		session: session,
	}

	for _, r := range c.rules {
		reply, matched := r.apply(ctx, t)
		if !matched {
			continue
		}
		if reply != "" {
			session.AddTurn(reply, false)
		}
		c.metrics.RecordIntent(r.intent)
		c.logger.Debug("message dispatched",
			zap.String("from", from),
			zap.String("intent", r.intent),
			zap.String("language", string(session.Language)),
		)
		return Outcome{Intent: r.intent, Reply: reply}
	}

	// The answer rule always matches; this is unreachable with the default table.
	return Outcome{}
}

// sendBrochure sends the brochure document to phone.
func (c *ConversationService) sendBrochure(ctx context.Context, phone string) error {
	return c.messenger.SendDocument(ctx, phone, c.cfg.BrochureMediaID, c.cfg.BrochureFilename)
}

// recordLead stores a lead; failures are logged and otherwise ignored.
func (c *ConversationService) recordLead(ctx context.Context, lead *models.Lead) {
	if c.leads == nil {
		return
	}
	if err := c.leads.SaveLead(ctx, lead); err != nil {
		c.logger.Error("failed to record lead",
			zap.String("phone", lead.Phone),
			zap.String("source", lead.Source),
			zap.Error(err),
		)
		return
	}
	c.logger.Info("lead recorded",
		zap.String("reference", lead.Reference),
		zap.String("phone", lead.Phone),
		zap.String("source", lead.Source),
	)
}
