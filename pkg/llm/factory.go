package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/config"
)

// NewGenerationClient creates the answer-generation client selected by the
// configuration. Returns nil without error when no generation endpoint is
// configured; the engine then answers structured queries only.
func NewGenerationClient(cfg *config.AIConfig, logger *zap.Logger) (GenerationClient, error) {
	if !cfg.HasGeneration() {
		return nil, nil
	}

	switch cfg.Provider {
	case "", "openai":
		return NewClient(&Config{
			Endpoint: cfg.LLMBaseURL,
			Model:    cfg.LLMModel,
			APIKey:   cfg.LLMAPIKey,
		}, logger)
	case "anthropic":
		return NewAnthropicClient(&Config{
			Endpoint: cfg.LLMBaseURL,
			Model:    cfg.LLMModel,
			APIKey:   cfg.LLMAPIKey,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

// NewEmbeddingClient creates the embedding client, always OpenAI-compatible.
// Returns nil without error when no embedding endpoint is configured; the
// semantic index is then unavailable.
func NewEmbeddingClient(cfg *config.AIConfig, logger *zap.Logger) (EmbeddingClient, error) {
	if !cfg.HasEmbeddings() {
		return nil, nil
	}

	return NewClient(&Config{
		Endpoint: cfg.EmbeddingURL,
		Model:    cfg.EmbeddingModel,
		APIKey:   cfg.LLMAPIKey,
	}, logger)
}
