package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/brookstone/whatsapp-bot/internal/metrics"
)

// scriptedGenerator replays results in order and records prompts.
type scriptedGenerator struct {
	mu      sync.Mutex
	results []generatorResult
	prompts []string
}

type generatorResult struct {
	text string
	err  error
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if len(g.results) == 0 {
		return "", errors.New("no scripted result")
	}
	r := g.results[0]
	g.results = g.results[1:]
	return r.text, r.err
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func TestAnswerReturnsFirstSuccess(t *testing.T) {
	gen := &scriptedGenerator{results: []generatorResult{{text: "Possession is May 2027"}}}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	svc := NewAnswerService(gen, AnswerConfig{RetryDelay: time.Millisecond, AgentPhone: "+91 1"}, zap.NewNop(), m)

	assert.Equal(t, "Possession is May 2027", svc.Answer(context.Background(), "when?"))
	assert.Equal(t, 1, gen.calls())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenAIRequests.WithLabelValues(metrics.OutcomeSuccess)))
}

func TestAnswerRetriesOnce(t *testing.T) {
	gen := &scriptedGenerator{results: []generatorResult{
		{err: errors.New("503")},
		{text: "second time lucky"},
	}}
	svc := NewAnswerService(gen, AnswerConfig{RetryDelay: time.Millisecond}, zap.NewNop(), nil)

	assert.Equal(t, "second time lucky", svc.Answer(context.Background(), "q"))
	assert.Equal(t, 2, gen.calls())
}

func TestAnswerFallsBackAfterTwoFailures(t *testing.T) {
	gen := &scriptedGenerator{results: []generatorResult{
		{err: errors.New("timeout")},
		{err: errors.New("timeout")},
		{text: "never reached"},
	}}
	svc := NewAnswerService(gen, AnswerConfig{RetryDelay: time.Millisecond, AgentPhone: "+91 1234567890"}, zap.NewNop(), nil)

	answer := svc.Answer(context.Background(), "q")
	assert.Equal(t, GenAIFallbackMessage("+91 1234567890"), answer)
	assert.Contains(t, answer, "+91 1234567890")
	assert.Equal(t, 2, gen.calls())
}

func TestAnswerWithoutGenerator(t *testing.T) {
	svc := NewAnswerService(nil, AnswerConfig{}, zap.NewNop(), nil)
	assert.False(t, svc.Configured())
	assert.Equal(t, GenAINotConfiguredMessage(), svc.Answer(context.Background(), "q"))
}

func TestAnswerStopsWhenContextCancelled(t *testing.T) {
	gen := &scriptedGenerator{results: []generatorResult{{err: errors.New("boom")}, {text: "late"}}}
	svc := NewAnswerService(gen, AnswerConfig{RetryDelay: time.Hour, AgentPhone: "+91 1"}, zap.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for gen.calls() == 0 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	assert.Equal(t, GenAIFallbackMessage("+91 1"), svc.Answer(ctx, "q"))
	assert.Equal(t, 1, gen.calls())
}

func TestNewGeminiGeneratorRequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), " ", "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGeminiClientOptionsEndpoint(t *testing.T) {
	assert.Len(t, geminiClientOptions("key", ""), 1)
	assert.Len(t, geminiClientOptions("key", "   "), 1)
	assert.Len(t, geminiClientOptions("key", "generativelanguage.example.com:443"), 2)
}
