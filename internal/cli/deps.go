package cli

import (
	"context"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"document-quiz/internal/chromemdb"
	"document-quiz/internal/config"
	"document-quiz/internal/db"
	"document-quiz/internal/embedding"
	"document-quiz/internal/llmservice"
	"document-quiz/internal/models"
	"document-quiz/internal/quiz"
	"document-quiz/internal/rag"
)

// components are the collaborators shared by every command.
type components struct {
	llm     llmservice.Generator
	builder *rag.Builder
	quizzes *quiz.Generator
	closers []io.Closer
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close component")
		}
	}
}

func buildComponents(ctx context.Context, cfg *config.Config) (*components, error) {
	c := &components{}

	llm, err := llmservice.NewGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.llm = llm
	if closer, ok := llm.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		c.Close()
		return nil, err
	}

	store, err := indexStore(ctx, cfg, c)
	if err != nil {
		c.Close()
		return nil, err
	}

	builder, err := rag.NewBuilder(cfg.RAG, embedder, store, llm)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.builder = builder
	c.quizzes = quiz.NewGenerator(llm, cfg.Quiz)
	return c, nil
}

func indexStore(ctx context.Context, cfg *config.Config, c *components) (models.IndexStore, error) {
	if cfg.RAG.IndexBackend != "pgvector" {
		return chromemdb.NewVectorDBManager(), nil
	}
	bunDB, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, bunDB)
	if err := db.InitDB(ctx, bunDB); err != nil {
		return nil, err
	}
	log.Info().Msg("Using pgvector index backend")
	return db.NewStore(bunDB), nil
}

func openDB(cfg *config.Config) (*bun.DB, error) {
	sqldb, err := db.ConnectDB(&cfg.Database)
	if err != nil {
		return nil, err
	}
	return db.NewDB(sqldb, cfg.Database.Debug), nil
}
