package llmservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/tmc/langchaingo/llms"

	"document-quiz/internal/config"
	"document-quiz/internal/models"
)

type fakeModel struct {
	reply    string
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
	deadline bool
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	if f.reply == "" {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLangchainGenerator_Generate(t *testing.T) {
	model := &fakeModel{reply: "<think>hmm, let me see</think>\n  Paris  "}
	g := NewLangchainGenerator(model, 0.7, time.Minute, true)

	out, err := g.Generate(context.Background(), "Capital of France?", WithSystem("be brief"), WithJSON())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "Paris" {
		t.Fatalf("got %q", out)
	}
	if len(model.messages) != 2 || model.messages[0].Role != llms.ChatMessageTypeSystem || model.messages[1].Role != llms.ChatMessageTypeHuman {
		t.Fatalf("unexpected messages %+v", model.messages)
	}
	if model.opts.Temperature != 0.7 {
		t.Errorf("temperature: got %v", model.opts.Temperature)
	}
	if !model.opts.JSONMode {
		t.Errorf("expected json mode")
	}
	if !model.deadline {
		t.Errorf("expected a deadline on the call context")
	}
}

func TestLangchainGenerator_TemperatureOverride(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	g := NewLangchainGenerator(model, 0.7, 0, false)
	if _, err := g.Generate(context.Background(), "p", WithTemperature(0), WithJSON()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if model.opts.Temperature != 0 {
		t.Errorf("temperature: got %v", model.opts.Temperature)
	}
	if model.opts.JSONMode {
		t.Errorf("json mode must stay off when the backend has it disabled")
	}
	if model.deadline {
		t.Errorf("zero timeout must not set a deadline")
	}
}

func TestLangchainGenerator_Errors(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{"transport", &fakeModel{err: errors.New("429 too many requests")}},
		{"no choices", &fakeModel{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewLangchainGenerator(tt.model, 0.7, time.Second, false)
			if _, err := g.Generate(context.Background(), "p"); !errors.Is(err, models.ErrGeneration) {
				t.Fatalf("expected ErrGeneration, got %v", err)
			}
		})
	}
}

func TestNewGenerator_Unknown(t *testing.T) {
	cfg := &config.Config{LLM: config.LLMConfig{Provider: "carrier-pigeon"}}
	if _, err := NewGenerator(context.Background(), cfg); !errors.Is(err, models.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestNewGeminiGenerator_NoKey(t *testing.T) {
	if _, err := NewGeminiGenerator(context.Background(), &config.LLMConfig{}, time.Second); !errors.Is(err, models.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("[{"), genai.Text("}]")}},
	}}}
	if got := responseText(resp); got != "[{}]" {
		t.Fatalf("got %q", got)
	}
	if got := responseText(nil); got != "" {
		t.Fatalf("nil response: got %q", got)
	}
}
