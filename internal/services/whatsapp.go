package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/brookstone/whatsapp-bot/internal/metrics"
)

// Messenger sends outbound WhatsApp traffic.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	SendDocument(ctx context.Context, to, mediaID, filename string) error
	MarkRead(ctx context.Context, messageID string) error
}

// Outbound message kinds used as metric labels.
const (
	KindText     = "text"
	KindDocument = "document"
	KindRead     = "read"
)

const cloudAPITimeout = 15 * time.Second

// CloudAPIConfig locates the WhatsApp Cloud API phone number.
type CloudAPIConfig struct {
	BaseURL       string
	APIVersion    string
	PhoneNumberID string
	Token         string
}

// WhatsAppService talks to the Meta WhatsApp Cloud API.
type WhatsAppService struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewWhatsAppService creates a Cloud API client.
func NewWhatsAppService(cfg CloudAPIConfig, logger *zap.Logger, m *metrics.Metrics) (*WhatsAppService, error) {
	if cfg.Token == "" || cfg.PhoneNumberID == "" {
		return nil, fmt.Errorf("whatsapp cloud api: %w", ErrNotConfigured)
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://graph.facebook.com"
	}
	return &WhatsAppService{
		endpoint: fmt.Sprintf("%s/%s/%s/messages", base, cfg.APIVersion, cfg.PhoneNumberID),
		token:    cfg.Token,
		client:   &http.Client{Timeout: cloudAPITimeout},
		logger:   logger,
		metrics:  m,
	}, nil
}

type cloudText struct {
	Body string `json:"body"`
}

type cloudDocument struct {
	ID       string `json:"id"`
	Filename string `json:"filename,omitempty"`
}

type cloudMessage struct {
	MessagingProduct string         `json:"messaging_product"`
	To               string         `json:"to,omitempty"`
	Type             string         `json:"type,omitempty"`
	Text             *cloudText     `json:"text,omitempty"`
	Document         *cloudDocument `json:"document,omitempty"`
	Status           string         `json:"status,omitempty"`
	MessageID        string         `json:"message_id,omitempty"`
}

// SendText sends a plain text message.
func (w *WhatsAppService) SendText(ctx context.Context, to, body string) error {
	err := w.post(ctx, cloudMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &cloudText{Body: body},
	})
	w.metrics.RecordOutbound(KindText, err)
	if err != nil {
		w.logger.Error("failed to send whatsapp text", zap.String("to", to), zap.Error(err))
		return err
	}
	w.logger.Info("whatsapp text sent", zap.String("to", to))
	return nil
}

// SendDocument sends a previously uploaded media file.
func (w *WhatsAppService) SendDocument(ctx context.Context, to, mediaID, filename string) error {
	var err error
	if mediaID == "" {
		err = fmt.Errorf("brochure media id: %w", ErrNotConfigured)
	} else {
		err = w.post(ctx, cloudMessage{
			MessagingProduct: "whatsapp",
			To:               to,
			Type:             "document",
			Document:         &cloudDocument{ID: mediaID, Filename: filename},
		})
	}
	w.metrics.RecordOutbound(KindDocument, err)
	if err != nil {
		w.logger.Error("failed to send whatsapp document", zap.String("to", to), zap.Error(err))
		return err
	}
	w.logger.Info("whatsapp document sent", zap.String("to", to), zap.String("filename", filename))
	return nil
}

// MarkRead sends a read receipt for an inbound message.
func (w *WhatsAppService) MarkRead(ctx context.Context, messageID string) error {
	err := w.post(ctx, cloudMessage{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
	})
	w.metrics.RecordOutbound(KindRead, err)
	return err
}

func (w *WhatsAppService) post(ctx context.Context, msg cloudMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("cloud api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("cloud api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// DisabledMessenger stands in when no transport has credentials. Every send
// fails with ErrNotConfigured so callers fall back to their apology texts.
type DisabledMessenger struct{}

func (DisabledMessenger) SendText(ctx context.Context, to, body string) error {
	return fmt.Errorf("send text: %w", ErrNotConfigured)
}

func (DisabledMessenger) SendDocument(ctx context.Context, to, mediaID, filename string) error {
	return fmt.Errorf("send document: %w", ErrNotConfigured)
}

func (DisabledMessenger) MarkRead(ctx context.Context, messageID string) error {
	return nil
}
