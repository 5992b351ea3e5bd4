package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/brookstone/whatsapp-bot/internal/models"
)

var (
	brochureKeywords = []string{"brochure", "pdf", "download", "send brochure", "share brochure", "floor plan", "send pdf"}
	otherNumberWords = []string{"another number", "different number", "other number"}
	affirmativeWords = []string{"yes", "yeah", "yup", "sure", "ok", "okay", "please", "send", "want", "need"}
	agentPhrases     = []string{"whatsapp chat", "whatsapp number", "agent whatsapp", "contact agent", "agent contact", "talk to agent"}
	bookingKeywords  = []string{"book site visit", "schedule visit", "site visit", "book appointment", "visit booking"}
)

// rule handles a message when apply reports a match. The first match wins.
type rule struct {
	intent string
	apply  func(ctx context.Context, t *turn) (string, bool)
}

func (c *ConversationService) buildRules() []rule {
	return []rule{
		{IntentBrochureNumber, c.brochureNumberRule},
		{IntentBrochure, c.brochureRule},
		{IntentBrochureFollowUp, c.brochureFollowUpRule},
		{IntentAgentContact, c.agentContactRule},
		{IntentBooking, c.bookingRule},
		{IntentBookingStep, c.bookingStepRule},
		{IntentAnswer, c.answerRule},
	}
}

// brochureNumberRule collects the number a brochure should go to.
func (c *ConversationService) brochureNumberRule(ctx context.Context, t *turn) (string, bool) {
	if t.session.Mode != models.ModePhoneForBrochure {
		return "", false
	}

	number, ok := ExtractMobile(t.text)
	if !ok {
		return c.templates.InvalidBrochureNumber(), true
	}

	t.session.UserPhone = number
	t.session.Mode = models.ModeNone

	if err := c.sendBrochure(ctx, RecipientNumber(number)); err != nil {
		return c.templates.BrochureToNumberFailed(), true
	}
	c.recordLead(ctx, &models.Lead{
		Phone:        t.from,
		ContactPhone: number,
		Source:       models.LeadSourceBrochure,
		Language:     string(t.session.Language),
	})
	return "", true
}

// brochureRule sends the brochure to the sender, or asks for another number.
// During a guided booking the brochure always goes to the sender so the
// booking keeps its mode and resumes on the next message.
func (c *ConversationService) brochureRule(ctx context.Context, t *turn) (string, bool) {
	if !containsAny(t.lower, brochureKeywords) {
		return "", false
	}

	if t.session.InBooking() {
		if err := c.sendBrochure(ctx, t.from); err != nil {
			return c.templates.BrochureFailed(), true
		}
		return "", true
	}

	if containsAny(t.lower, otherNumberWords) {
		t.session.Mode = models.ModePhoneForBrochure
		if _, ok := ExtractMobile(t.text); ok {
			return c.brochureNumberRule(ctx, t)
		}
		return c.templates.AskBrochureNumber(), true
	}

	t.session.AskedAboutBrochure = true
	if err := c.sendBrochure(ctx, t.from); err != nil {
		return c.templates.BrochureFailed(), true
	}
	return "", true
}

// brochureFollowUpRule consumes a pending brochure offer.
func (c *ConversationService) brochureFollowUpRule(ctx context.Context, t *turn) (string, bool) {
	if !t.session.AskedAboutBrochure {
		return "", false
	}
	t.session.AskedAboutBrochure = false

	if !containsAny(t.lower, affirmativeWords) {
		return "", false
	}
	if err := c.sendBrochure(ctx, t.from); err != nil {
		return c.templates.BrochureRetryFailed(), true
	}
	return "", true
}

func (c *ConversationService) agentContactRule(_ context.Context, t *turn) (string, bool) {
	if !containsAny(t.lower, agentPhrases) {
		return "", false
	}
	return c.templates.AgentContact(), true
}

// bookingRule answers a site-visit request with the form link, or starts
// the guided flow when enabled. A booking already started is never restarted.
func (c *ConversationService) bookingRule(_ context.Context, t *turn) (string, bool) {
	if !containsAny(t.lower, bookingKeywords) {
		return "", false
	}
	if !c.cfg.GuidedBooking {
		return c.templates.BookingForm(), true
	}
	if t.session.InBooking() {
		return "", false
	}
	if t.session.Booking.Step != models.StepUnset {
		return c.templates.BookingForm(), true
	}

	t.session.StartBooking(t.from)
	return c.templates.AskName(), true
}

func (c *ConversationService) bookingStepRule(ctx context.Context, t *turn) (string, bool) {
	if !t.session.InBooking() {
		return "", false
	}
	return c.advanceBooking(ctx, t), true
}

// answerRule is the catch-all: it notes budget mentions and asks the model.
func (c *ConversationService) answerRule(ctx context.Context, t *turn) (string, bool) {
	if budget, ok := ExtractBudget(t.text); ok && !t.session.Booking.IsEmpty() {
		c.logger.Info("budget indicated", zap.String("phone", t.from), zap.String("budget", budget))
		c.recordLead(ctx, &models.Lead{
			Phone:    t.from,
			Name:     t.session.Booking.Name,
			Budget:   budget,
			Source:   models.LeadSourceBudgetMention,
			Language: string(t.session.Language),
		})
	}

	prompt, err := c.prompts.Build(t.text, t.session.Language, t.session.RecentHistory(historyWindow))
	if err != nil {
		c.logger.Error("failed to build prompt", zap.Error(err))
		return GenAIFallbackMessage(c.templates.AgentPhone), true
	}
	return c.answers.Answer(ctx, prompt), true
}
