package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"document-quiz/internal/models"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"LLM_API_KEY", "GROQ_API_KEY", "GEMINI_API_KEY", "EMBED_API_KEY", "DATABASE_URL", "REDIS_ADDR", "PORT"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RAG.ChunkSize != 1000 || cfg.RAG.ChunkOverlap != 200 {
		t.Fatalf("chunking defaults: got %d/%d", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
	if cfg.RAG.TopK != 4 || cfg.Quiz.QuestionCount != 10 || cfg.Quiz.PointsPerQuestion != 20 {
		t.Fatalf("unexpected defaults: %+v %+v", cfg.RAG, cfg.Quiz)
	}
	if cfg.LLM.TemperatureValue() != 0.7 {
		t.Fatalf("temperature: got %v", cfg.LLM.TemperatureValue())
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "secret")
	t.Setenv("PORT", "9090")
	path := writeConfig(t, `
llm:
  provider: openai
  base_url: https://api.groq.com/openai/v1
  model: llama-3.1-70b-versatile
rag:
  chunk_size: 500
  chunk_overlap: 0
embed_llm:
  provider: hash
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLM.Key != "secret" {
		t.Errorf("key from env: got %q", cfg.LLM.Key)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port from env: got %d", cfg.Server.Port)
	}
	if cfg.RAG.ChunkSize != 500 || cfg.RAG.ChunkOverlap != 0 {
		t.Errorf("explicit zero overlap must be kept: got %d/%d", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
}

func TestLoadConfigZeroTemperature(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
llm:
  temperature: 0
embed_llm:
  provider: hash
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLM.Temperature == nil || cfg.LLM.TemperatureValue() != 0 {
		t.Fatalf("explicit zero temperature must be kept: got %v", cfg.LLM.TemperatureValue())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"overlap equals size", func(c *Config) { c.RAG.ChunkOverlap = c.RAG.ChunkSize }, false},
		{"negative overlap", func(c *Config) { c.RAG.ChunkOverlap = -1 }, false},
		{"zero top k", func(c *Config) { c.RAG.TopK = 0 }, false},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "mystery" }, false},
		{"pgvector without dsn", func(c *Config) { c.RAG.IndexBackend = "pgvector" }, false},
		{"pgvector with dsn", func(c *Config) {
			c.RAG.IndexBackend = "pgvector"
			c.Database.DSN = "postgres://localhost/quiz"
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.ApplyDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.ok && !errors.Is(err, models.ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Errorf("empty: got %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Errorf("invalid: got %v", got)
	}
	if got := TTLDuration("30s", time.Minute); got != 30*time.Second {
		t.Errorf("valid: got %v", got)
	}
}
