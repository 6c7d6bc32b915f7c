package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for gestinv-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// AI model endpoints
	AI AIConfig `yaml:"ai"`

	// Engine tuning knobs
	Engine EngineConfig `yaml:"engine"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"gestinv"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"gestinv"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// AIConfig holds model endpoints for embeddings and answer generation.
// Provider selects the generation backend: "openai" (any OpenAI-compatible
// endpoint, including local vLLM/Ollama) or "anthropic".
type AIConfig struct {
	Provider       string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`
	LLMBaseURL     string `yaml:"llm_base_url" env:"AI_LLM_BASE_URL" env-default:"https://api.openai.com/v1"`
	LLMModel       string `yaml:"llm_model" env:"AI_LLM_MODEL" env-default:"gpt-4o-mini"`
	LLMAPIKey      string `yaml:"-" env:"AI_LLM_API_KEY"` // Secret - not in YAML
	EmbeddingURL   string `yaml:"embedding_url" env:"AI_EMBEDDING_URL" env-default:"https://api.openai.com/v1"`
	EmbeddingModel string `yaml:"embedding_model" env:"AI_EMBEDDING_MODEL" env-default:"text-embedding-3-small"`
}

// HasGeneration returns true if an answer-generation endpoint is configured.
func (c *AIConfig) HasGeneration() bool {
	return c.LLMBaseURL != "" && c.LLMModel != ""
}

// HasEmbeddings returns true if an embedding endpoint is configured.
func (c *AIConfig) HasEmbeddings() bool {
	return c.EmbeddingURL != "" && c.EmbeddingModel != ""
}

// EngineConfig holds query-resolution tuning parameters.
type EngineConfig struct {
	// MaxResults caps every list result regardless of the requested limit.
	MaxResults int `yaml:"max_results" env:"ENGINE_MAX_RESULTS" env-default:"50"`
	// FuzzyThreshold is the 0-100 similarity floor for fuzzy alias matches.
	FuzzyThreshold int `yaml:"fuzzy_threshold" env:"ENGINE_FUZZY_THRESHOLD" env-default:"88"`
	// RebuildBatchSize is how many records are embedded per batch during a rebuild.
	RebuildBatchSize int `yaml:"rebuild_batch_size" env:"ENGINE_REBUILD_BATCH_SIZE" env-default:"50"`
	// RetrievalTopK is how many index documents ground a semantic answer.
	RetrievalTopK int `yaml:"retrieval_top_k" env:"ENGINE_RETRIEVAL_TOP_K" env-default:"5"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv reads configuration from environment variables only, without
// requiring a config.yaml. Used by operational scripts.
func LoadFromEnv(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
