// Package llm provides the AI clients the engine depends on: an
// OpenAI-compatible client for chat and embeddings, and an Anthropic client
// for generation. Both capabilities are optional at runtime; callers must
// degrade gracefully when a client is absent.
package llm

import "context"

// GenerationClient produces a chat completion for a prompt.
type GenerationClient interface {
	GenerateResponse(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error)
	Model() string
}

// EmbeddingClient turns text into embedding vectors.
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
	CreateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error)
	Model() string
}
