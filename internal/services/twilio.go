package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/brookstone/whatsapp-bot/internal/metrics"
)

// messageCreator is the slice of the Twilio REST API the transport uses.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioConfig holds the Twilio WhatsApp sender settings.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string // Format: "whatsapp:+14155238886"
	// BrochureURL is the public URL Twilio fetches the brochure from.
	BrochureURL string
}

// TwilioService sends WhatsApp messages through Twilio
type TwilioService struct {
	api         messageCreator
	from        string
	brochureURL string
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService(cfg TwilioConfig, logger *zap.Logger, m *metrics.Metrics) (*TwilioService, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, fmt.Errorf("twilio: %w", ErrNotConfigured)
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioService{
		api:         client.Api,
		from:        cfg.From,
		brochureURL: cfg.BrochureURL,
		logger:      logger,
		metrics:     m,
	}, nil
}

// SendText sends a WhatsApp message via Twilio.
func (t *TwilioService) SendText(ctx context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(whatsappAddress(to))
	params.SetBody(body)

	err := t.create(ctx, params)
	t.metrics.RecordOutbound(KindText, err)
	return err
}

// SendDocument sends the brochure as media. Twilio fetches media by URL, so
// mediaID is unused and the configured brochure URL is sent instead.
func (t *TwilioService) SendDocument(ctx context.Context, to, mediaID, filename string) error {
	if t.brochureURL == "" {
		err := fmt.Errorf("brochure url: %w", ErrNotConfigured)
		t.metrics.RecordOutbound(KindDocument, err)
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(whatsappAddress(to))
	params.SetBody(filename)
	params.SetMediaUrl([]string{t.brochureURL})

	err := t.create(ctx, params)
	t.metrics.RecordOutbound(KindDocument, err)
	return err
}

// MarkRead is a no-op: Twilio does not expose WhatsApp read receipts.
func (t *TwilioService) MarkRead(ctx context.Context, messageID string) error {
	return nil
}

func (t *TwilioService) create(ctx context.Context, params *twilioApi.CreateMessageParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		t.logger.Error("failed to send twilio message", zap.Error(err))
		return fmt.Errorf("twilio: create message: %w", err)
	}
	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		msg := ""
		if resp.ErrorMessage != nil {
			msg = *resp.ErrorMessage
		}
		return fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, msg)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	t.logger.Info("twilio message sent", zap.String("sid", sid))
	return nil
}

func whatsappAddress(phone string) string {
	if strings.HasPrefix(phone, "whatsapp:") {
		return phone
	}
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	return "whatsapp:" + phone
}
