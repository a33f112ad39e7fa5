package quiz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/prompts"

	"document-quiz/internal/config"
	"document-quiz/internal/llmservice"
	"document-quiz/internal/models"
)

var mcqPrompt = prompts.NewPromptTemplate(models.MCQPromptTemplate, []string{"text", "count", "choices", "points"})

// Generator asks the LLM for a quiz over a whole document.
type Generator struct {
	llm llmservice.Generator
	cfg config.QuizConfig
}

func NewGenerator(llm llmservice.Generator, cfg config.QuizConfig) *Generator {
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = config.DefaultQuestionCount
	}
	if cfg.ChoicesPerQuestion <= 0 {
		cfg.ChoicesPerQuestion = config.DefaultChoices
	}
	if cfg.PointsPerQuestion <= 0 {
		cfg.PointsPerQuestion = config.DefaultPointsPerQuestion
	}
	return &Generator{llm: llm, cfg: cfg}
}

// Generate returns a validated quiz for text. LLM failures wrap
// models.ErrGeneration, unusable replies wrap models.ErrMalformedOutput.
func (g *Generator) Generate(ctx context.Context, text string) (models.Quiz, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.ErrNoContent
	}

	prompt, err := mcqPrompt.Format(map[string]any{
		"text":    text,
		"count":   g.cfg.QuestionCount,
		"choices": g.cfg.ChoicesPerQuestion,
		"points":  g.cfg.PointsPerQuestion,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: render quiz prompt: %w", models.ErrGeneration, err)
	}

	start := time.Now()
	raw, err := g.llm.Generate(ctx, prompt, llmservice.WithJSON())
	if err != nil {
		return nil, err
	}

	quiz, err := ParseQuiz(raw, g.cfg.ChoicesPerQuestion)
	if err != nil {
		log.Warn().Err(err).Int("raw_len", len(raw)).Msg("Rejected quiz output")
		return nil, err
	}
	if len(quiz) != g.cfg.QuestionCount {
		if g.cfg.StrictCount {
			return nil, fmt.Errorf("%w: got %d questions, want %d", models.ErrMalformedOutput, len(quiz), g.cfg.QuestionCount)
		}
		log.Warn().Int("got", len(quiz)).Int("want", g.cfg.QuestionCount).Msg("Quiz has unexpected question count")
	}
	log.Info().Int("questions", len(quiz)).Dur("took", time.Since(start)).Msg("Generated quiz")
	return quiz, nil
}
