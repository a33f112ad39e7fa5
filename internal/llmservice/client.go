package llmservice

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"document-quiz/internal/config"
	"document-quiz/internal/models"
)

var thinkTag = regexp.MustCompile(models.ThinkTag)

// Generator is the text generation collaborator.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts ...Option) (string, error)
}

// CallOptions tune a single Generate call.
type CallOptions struct {
	System      string
	JSON        bool
	Temperature *float64
}

type Option func(*CallOptions)

// WithSystem sets the system prompt.
func WithSystem(prompt string) Option {
	return func(o *CallOptions) { o.System = prompt }
}

// WithJSON asks for a JSON response when the backend supports it.
func WithJSON() Option {
	return func(o *CallOptions) { o.JSON = true }
}

func WithTemperature(t float64) Option {
	return func(o *CallOptions) { o.Temperature = &t }
}

func applyOptions(opts []Option) CallOptions {
	var o CallOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// NewGenerator builds the generator for cfg.LLM.Provider.
func NewGenerator(ctx context.Context, cfg *config.Config) (Generator, error) {
	log.Debug().Interface("llm", map[string]any{
		"provider": cfg.LLM.Provider,
		"base_url": cfg.LLM.BaseURL,
		"model":    cfg.LLM.Model,
	}).Msg("Creating generator")

	switch cfg.LLM.Provider {
	case "openai":
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(cfg.LLM.Key, "Bearer ")),
			openai.WithModel(cfg.LLM.Model),
		}
		if cfg.LLM.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.LLM.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: init openai client: %w", models.ErrConfig, err)
		}
		return NewLangchainGenerator(llm, cfg.LLM.TemperatureValue(), cfg.LLMTimeout(), cfg.LLM.JSONMode), nil
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.LLM.Model)}
		if cfg.LLM.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.LLM.BaseURL))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: init ollama client: %w", models.ErrConfig, err)
		}
		return NewLangchainGenerator(llm, cfg.LLM.TemperatureValue(), cfg.LLMTimeout(), cfg.LLM.JSONMode), nil
	case "gemini":
		g, err := NewGeminiGenerator(ctx, &cfg.LLM, cfg.LLMTimeout())
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: unsupported llm provider %q", models.ErrConfig, cfg.LLM.Provider)
	}
}

// LangchainGenerator drives any langchaingo chat model.
type LangchainGenerator struct {
	llm         llms.Model
	temperature float64
	timeout     time.Duration
	jsonMode    bool
}

func NewLangchainGenerator(llm llms.Model, temperature float64, timeout time.Duration, jsonMode bool) *LangchainGenerator {
	return &LangchainGenerator{llm: llm, temperature: temperature, timeout: timeout, jsonMode: jsonMode}
}

// Generate sends one system+human exchange and returns the trimmed reply.
func (g *LangchainGenerator) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	o := applyOptions(opts)
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	var messages []llms.MessageContent
	if o.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, o.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	temperature := g.temperature
	if o.Temperature != nil {
		temperature = *o.Temperature
	}
	callOpts := []llms.CallOption{llms.WithTemperature(temperature)}
	if o.JSON && g.jsonMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	start := time.Now()
	resp, err := g.llm.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", models.ErrGeneration)
	}
	log.Debug().Dur("took", time.Since(start)).Int("prompt_len", len(prompt)).Msg("Generated content")
	return CleanResponse(resp.Choices[0].Content), nil
}

// CleanResponse removes reasoning blocks some models emit before the answer.
func CleanResponse(s string) string {
	return strings.TrimSpace(thinkTag.ReplaceAllString(s, ""))
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
