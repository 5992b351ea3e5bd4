package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/brookstone/whatsapp-bot/internal/metrics"
)

// Generation defaults.
const (
	DefaultTemperature     float32 = 0.3
	DefaultMaxOutputTokens int32   = 800
	DefaultAnswerAttempts          = 2
	DefaultRetryDelay              = 2 * time.Second
	DefaultAttemptTimeout          = 30 * time.Second
)

// ErrNotConfigured marks an integration without credentials.
var ErrNotConfigured = errors.New("integration not configured")

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator implements Generator using Google's Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini client. An empty endpoint uses the
// library's default host.
func NewGeminiGenerator(ctx context.Context, apiKey, model, endpoint string) (*GeminiGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: %w", ErrNotConfigured)
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-1.5-flash"
	}
	client, err := genai.NewClient(ctx, geminiClientOptions(apiKey, endpoint)...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func geminiClientOptions(apiKey, endpoint string) []option.ClientOption {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return opts
}

// Generate sends prompt as a single user turn.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(DefaultTemperature)
	model.SetMaxOutputTokens(DefaultMaxOutputTokens)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("gemini: empty content")
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", errors.New("gemini: no text parts")
	}
	return text.String(), nil
}

// Close releases the underlying client.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

// AnswerConfig tunes the retry loop.
type AnswerConfig struct {
	Attempts       int
	RetryDelay     time.Duration
	AttemptTimeout time.Duration
	// RatePerMinute throttles generator calls; 0 disables throttling.
	RatePerMinute int
	AgentPhone    string
}

// AnswerService asks the generator for free-text answers and never fails:
// errors degrade to a fixed apology.
type AnswerService struct {
	gen     Generator
	cfg     AnswerConfig
	limiter *rate.Limiter
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewAnswerService wraps gen. A nil gen answers with the configuration notice.
func NewAnswerService(gen Generator, cfg AnswerConfig, logger *zap.Logger, m *metrics.Metrics) *AnswerService {
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultAnswerAttempts
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}

	s := &AnswerService{gen: gen, cfg: cfg, logger: logger, metrics: m}
	if cfg.RatePerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), cfg.RatePerMinute)
	}
	return s
}

// Configured reports whether a generator is wired.
func (s *AnswerService) Configured() bool {
	return s.gen != nil
}

// Answer returns the generated text, or a fallback message after all attempts fail.
func (s *AnswerService) Answer(ctx context.Context, prompt string) string {
	if s.gen == nil {
		return GenAINotConfiguredMessage()
	}

	for attempt := 0; attempt < s.cfg.Attempts; attempt++ {
		if attempt > 0 && s.cfg.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return GenAIFallbackMessage(s.cfg.AgentPhone)
			case <-time.After(s.cfg.RetryDelay):
			}
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				s.logger.Warn("genai rate limiter wait aborted", zap.Error(err))
				return GenAIFallbackMessage(s.cfg.AgentPhone)
			}
		}

		text, err := s.attempt(ctx, prompt)
		if err == nil {
			return text
		}
		s.logger.Warn("genai attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))
	}

	return GenAIFallbackMessage(s.cfg.AgentPhone)
}

func (s *AnswerService) attempt(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
	defer cancel()

	started := time.Now()
	text, err := s.gen.Generate(ctx, prompt)
	s.metrics.RecordGenAI(started, err)
	return text, err
}
