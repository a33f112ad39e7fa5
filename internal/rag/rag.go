package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/prompts"

	"document-quiz/internal/config"
	"document-quiz/internal/embedding"
	"document-quiz/internal/llmservice"
	"document-quiz/internal/models"
	"document-quiz/internal/parser"
)

type State int

const (
	StateUninitialized State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "uninitialized"
}

var (
	qaPrompt       = prompts.NewPromptTemplate(models.QAPromptTemplate, []string{"context", "history", "question"})
	condensePrompt = prompts.NewPromptTemplate(models.CondensePromptTemplate, []string{"history", "question"})
)

// Builder turns a document into a ready QA session.
type Builder struct {
	chunker  *parser.Chunker
	embedder embeddings.Embedder
	store    models.IndexStore
	llm      llmservice.Generator
	cfg      config.RAGConfig
}

func NewBuilder(cfg config.RAGConfig, embedder embeddings.Embedder, store models.IndexStore, llm llmservice.Generator) (*Builder, error) {
	chunker, err := parser.NewChunker(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive", models.ErrConfig)
	}
	return &Builder{chunker: chunker, embedder: embedder, store: store, llm: llm, cfg: cfg}, nil
}

// Build chunks, embeds and indexes doc. Nothing is returned unless every
// step succeeds.
func (b *Builder) Build(ctx context.Context, doc *models.Document) (*Session, error) {
	if doc.Empty() {
		return nil, models.ErrNoContent
	}
	chunks, err := b.chunker.Split(doc.ID, doc.Text)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, models.ErrNoContent
	}

	start := time.Now()
	embedded, err := embedding.EmbedChunks(ctx, b.embedder, chunks)
	if err != nil {
		return nil, err
	}
	index, err := b.store.Build(ctx, doc.ID, embedded)
	if err != nil {
		return nil, err
	}
	log.Info().Str("document_id", doc.ID).Int("chunks", len(chunks)).Dur("took", time.Since(start)).Msg("QA session ready")

	return &Session{
		docID:        doc.ID,
		index:        index,
		embedder:     b.embedder,
		llm:          b.llm,
		topK:         b.cfg.TopK,
		historyTurns: b.cfg.HistoryTurns,
		condense:     b.cfg.CondenseQuestion,
	}, nil
}

// Session answers questions about one document and remembers the
// conversation. A nil or zero Session is uninitialized.
type Session struct {
	mu           sync.Mutex
	docID        string
	index        models.Index
	embedder     embeddings.Embedder
	llm          llmservice.Generator
	topK         int
	historyTurns int
	condense     bool
	history      []models.Turn
}

func (s *Session) State() State {
	if s == nil || s.index == nil {
		return StateUninitialized
	}
	return StateReady
}

func (s *Session) DocumentID() string {
	if s == nil {
		return ""
	}
	return s.docID
}

// Ask retrieves context for question, asks the LLM and records the turn.
// History only changes when an answer is produced.
func (s *Session) Ask(ctx context.Context, question string) (models.Answer, error) {
	if s.State() != StateReady {
		return models.Answer{}, models.ErrQANotReady
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return models.Answer{}, models.ErrEmptyQuestion
	}

	// mu only guards history; collaborator calls run without it
	s.mu.Lock()
	recent := s.recent()
	s.mu.Unlock()

	standalone, err := s.standaloneQuestion(ctx, question, recent)
	if err != nil {
		return models.Answer{}, err
	}

	vector, err := embedding.EmbedQuery(ctx, s.embedder, standalone)
	if err != nil {
		return models.Answer{}, err
	}
	hits, err := s.index.Search(ctx, vector, s.topK)
	if err != nil {
		return models.Answer{}, err
	}

	prompt, err := qaPrompt.Format(map[string]any{
		"context":  joinHits(hits),
		"history":  formatHistory(recent),
		"question": question,
	})
	if err != nil {
		return models.Answer{}, fmt.Errorf("%w: render qa prompt: %w", models.ErrGeneration, err)
	}

	text, err := s.llm.Generate(ctx, prompt, llmservice.WithSystem(models.QASystemPrompt))
	if err != nil {
		return models.Answer{}, err
	}

	s.mu.Lock()
	s.history = append(s.history, models.Turn{Question: question, Answer: text, AskedAt: time.Now()})
	s.mu.Unlock()

	sources := make([]models.Chunk, len(hits))
	for i, h := range hits {
		sources[i] = h.Chunk
	}
	return models.Answer{Text: text, Sources: sources}, nil
}

// standaloneQuestion rewrites a follow-up so it can be searched on its own
func (s *Session) standaloneQuestion(ctx context.Context, question string, recent []models.Turn) (string, error) {
	if !s.condense || len(recent) == 0 {
		return question, nil
	}
	prompt, err := condensePrompt.Format(map[string]any{
		"history":  formatHistory(recent),
		"question": question,
	})
	if err != nil {
		return "", fmt.Errorf("%w: render condense prompt: %w", models.ErrGeneration, err)
	}
	rephrased, err := s.llm.Generate(ctx, prompt, llmservice.WithTemperature(0))
	if err != nil {
		return "", err
	}
	if rephrased == "" {
		return question, nil
	}
	log.Debug().Str("question", question).Str("standalone", rephrased).Msg("Condensed follow-up")
	return rephrased, nil
}

// History returns the turns so far, oldest first.
func (s *Session) History() []models.Turn {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Close drops the session's index.
func (s *Session) Close(ctx context.Context) error {
	if s.State() != StateReady {
		return nil
	}
	return s.index.Close(ctx)
}

// recent copies the turns that go into prompts. Callers hold mu.
func (s *Session) recent() []models.Turn {
	turns := s.history
	if s.historyTurns > 0 && len(turns) > s.historyTurns {
		turns = turns[len(turns)-s.historyTurns:]
	}
	return append([]models.Turn(nil), turns...)
}

func joinHits(hits []models.ScoredChunk) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.Content
	}
	return strings.Join(parts, models.ContextSeparator)
}

func formatHistory(turns []models.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "Human: %s\nAssistant: %s\n", t.Question, t.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}
