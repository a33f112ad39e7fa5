package llmservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"document-quiz/internal/config"
	"document-quiz/internal/models"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiGenerator calls Google's Gemini API; JSON requests use the
// application/json response MIME type.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float64
	timeout     time.Duration
}

func NewGeminiGenerator(ctx context.Context, cfg *config.LLMConfig, timeout time.Duration) (*GeminiGenerator, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("%w: gemini api key is not set", models.ErrConfig)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Key))
	if err != nil {
		return nil, fmt.Errorf("%w: create gemini client: %w", models.ErrConfig, err)
	}
	name := cfg.Model
	if name == "" {
		name = defaultGeminiModel
	}
	return &GeminiGenerator{client: client, model: name, temperature: cfg.TemperatureValue(), timeout: timeout}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	o := applyOptions(opts)
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	model := g.client.GenerativeModel(g.model)
	temperature := g.temperature
	if o.Temperature != nil {
		temperature = *o.Temperature
	}
	model.SetTemperature(float32(temperature))
	if o.JSON {
		model.ResponseMIMEType = "application/json"
	}
	if o.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(o.System)}}
	}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrGeneration, err)
	}
	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", models.ErrGeneration)
	}
	log.Debug().Dur("took", time.Since(start)).Str("model", g.model).Msg("Generated content")
	return CleanResponse(text), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// Close closes the underlying client
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}
