package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"document-quiz/internal/models"
)

const (
	DefaultChunkSize         = 1000
	DefaultChunkOverlap      = 200
	DefaultTopK              = 4
	DefaultHistoryTurns      = 5
	DefaultQuestionCount     = 10
	DefaultChoices           = 4
	DefaultPointsPerQuestion = 20
	DefaultTemperature       = 0.7
	DefaultBatchSize         = 32
	DefaultPort              = 8080
	DefaultMaxInflight       = 8
)

type Config struct {
	LogLevel string         `yaml:"log_level"`
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	EmbedLLM EmbedConfig    `yaml:"embed_llm"`
	RAG      RAGConfig      `yaml:"rag"`
	Quiz     QuizConfig     `yaml:"quiz"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	MaxInflight int    `yaml:"max_inflight"`
	SessionTTL  string `yaml:"session_ttl"`
	MaxUpload   int64  `yaml:"max_upload_bytes"`
}

// LLMConfig describes the text generation collaborator.
type LLMConfig struct {
	Provider    string   `yaml:"provider"` // openai, ollama, gemini
	BaseURL     string   `yaml:"base_url"`
	Key         string   `yaml:"key"`
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature"` // nil means DefaultTemperature
	Timeout     string   `yaml:"timeout"`
	JSONMode    bool     `yaml:"json_mode"`
}

// TemperatureValue returns the sampling temperature. An explicit 0 is kept.
func (c LLMConfig) TemperatureValue() float64 {
	if c.Temperature == nil {
		return DefaultTemperature
	}
	return *c.Temperature
}

// EmbedConfig describes the embedding collaborator.
type EmbedConfig struct {
	Provider   string `yaml:"provider"` // ollama, openai, hash
	BaseURL    string `yaml:"base_url"`
	Key        string `yaml:"key"`
	Model      string `yaml:"model"`
	BatchSize  int    `yaml:"batch_size"`
	Dimensions int    `yaml:"dimensions"`
}

type RAGConfig struct {
	ChunkSize        int    `yaml:"chunk_size"`
	ChunkOverlap     int    `yaml:"chunk_overlap"`
	Splitter         string `yaml:"splitter"` // fixed, recursive
	TopK             int    `yaml:"top_k"`
	HistoryTurns     int    `yaml:"history_turns"`
	CondenseQuestion bool   `yaml:"condense_question"`
	IndexBackend     string `yaml:"index_backend"` // chromem, pgvector
}

type QuizConfig struct {
	QuestionCount      int  `yaml:"question_count"`
	ChoicesPerQuestion int  `yaml:"choices_per_question"`
	PointsPerQuestion  int  `yaml:"points_per_question"`
	StrictCount        bool `yaml:"strict_count"`
}

type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"` // pgdriver, pq
	Debug  bool   `yaml:"debug"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"`
}

// LoadConfig reads the YAML file at path, applies .env and environment
// overrides, fills defaults and validates the result. A missing file yields
// the defaults.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: load .env: %w", models.ErrConfig, err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %w", models.ErrConfig, path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("%w: read %s: %w", models.ErrConfig, path, err)
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.LLM.Key, "LLM_API_KEY", "GROQ_API_KEY")
	if c.LLM.Provider == "gemini" {
		setString(&c.LLM.Key, "GEMINI_API_KEY")
	}
	setString(&c.EmbedLLM.Key, "EMBED_API_KEY")
	setString(&c.Database.DSN, "DATABASE_URL")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil && port > 0 {
		c.Server.Port = port
	}
}

// setString overwrites dst with the first non-empty env var
func setString(dst *string, keys ...string) {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			*dst = v
			return
		}
	}
}

// ApplyDefaults fills zero values. Overlap is only defaulted together with
// the chunk size so an explicit overlap of 0 stays valid.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.MaxInflight == 0 {
		c.Server.MaxInflight = DefaultMaxInflight
	}
	if c.Server.MaxUpload == 0 {
		c.Server.MaxUpload = 32 << 20
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Temperature == nil {
		t := DefaultTemperature
		c.LLM.Temperature = &t
	}
	if c.EmbedLLM.Provider == "" {
		c.EmbedLLM.Provider = "ollama"
	}
	if c.EmbedLLM.BatchSize == 0 {
		c.EmbedLLM.BatchSize = DefaultBatchSize
	}
	if c.EmbedLLM.Dimensions == 0 {
		c.EmbedLLM.Dimensions = 768
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = DefaultChunkSize
		if c.RAG.ChunkOverlap == 0 {
			c.RAG.ChunkOverlap = DefaultChunkOverlap
		}
	}
	if c.RAG.Splitter == "" {
		c.RAG.Splitter = "fixed"
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = DefaultTopK
	}
	if c.RAG.HistoryTurns == 0 {
		c.RAG.HistoryTurns = DefaultHistoryTurns
	}
	if c.RAG.IndexBackend == "" {
		c.RAG.IndexBackend = "chromem"
	}
	if c.Quiz.QuestionCount == 0 {
		c.Quiz.QuestionCount = DefaultQuestionCount
	}
	if c.Quiz.ChoicesPerQuestion == 0 {
		c.Quiz.ChoicesPerQuestion = DefaultChoices
	}
	if c.Quiz.PointsPerQuestion == 0 {
		c.Quiz.PointsPerQuestion = DefaultPointsPerQuestion
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "pgdriver"
	}
}

// Validate returns an error wrapping models.ErrConfig for unusable settings.
func (c *Config) Validate() error {
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", models.ErrConfig, c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, %d), got %d", models.ErrConfig, c.RAG.ChunkSize, c.RAG.ChunkOverlap)
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", models.ErrConfig, c.RAG.TopK)
	}
	if c.Quiz.QuestionCount <= 0 || c.Quiz.ChoicesPerQuestion < 2 || c.Quiz.PointsPerQuestion <= 0 {
		return fmt.Errorf("%w: quiz settings must be positive", models.ErrConfig)
	}
	if err := oneOf("llm.provider", c.LLM.Provider, "openai", "ollama", "gemini"); err != nil {
		return err
	}
	if err := oneOf("embed_llm.provider", c.EmbedLLM.Provider, "openai", "ollama", "hash"); err != nil {
		return err
	}
	if err := oneOf("rag.splitter", c.RAG.Splitter, "fixed", "recursive"); err != nil {
		return err
	}
	if err := oneOf("rag.index_backend", c.RAG.IndexBackend, "chromem", "pgvector"); err != nil {
		return err
	}
	if err := oneOf("database.driver", c.Database.Driver, "pgdriver", "pq"); err != nil {
		return err
	}
	if c.RAG.IndexBackend == "pgvector" && c.Database.DSN == "" {
		return fmt.Errorf("%w: pgvector backend needs database.dsn", models.ErrConfig)
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be one of %s, got %q", models.ErrConfig, field, strings.Join(allowed, ", "), value)
}

// LLMTimeout is the per-call deadline for generation, 0 meaning none.
func (c *Config) LLMTimeout() time.Duration {
	return TTLDuration(c.LLM.Timeout, 2*time.Minute)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
