package llm

import (
	"context"
	"math"
)

// MockGenerationClient implements GenerationClient with overridable function
// fields for tests.
type MockGenerationClient struct {
	GenerateResponseFunc func(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error)
	ModelName            string
}

var _ GenerationClient = (*MockGenerationClient)(nil)

func (m *MockGenerationClient) GenerateResponse(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, prompt, systemMessage, temperature)
	}
	return "", nil
}

func (m *MockGenerationClient) Model() string {
	if m.ModelName != "" {
		return m.ModelName
	}
	return "mock-model"
}

// MockEmbeddingClient implements EmbeddingClient with overridable function
// fields for tests. The default embedding is a unit vector derived from the
// input length so distinct inputs stay distinguishable.
type MockEmbeddingClient struct {
	CreateEmbeddingFunc  func(ctx context.Context, input string) ([]float32, error)
	CreateEmbeddingsFunc func(ctx context.Context, inputs []string) ([][]float32, error)
	ModelName            string
}

var _ EmbeddingClient = (*MockEmbeddingClient)(nil)

func (m *MockEmbeddingClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	if m.CreateEmbeddingFunc != nil {
		return m.CreateEmbeddingFunc(ctx, input)
	}
	return defaultEmbedding(input), nil
}

func (m *MockEmbeddingClient) CreateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error) {
	if m.CreateEmbeddingsFunc != nil {
		return m.CreateEmbeddingsFunc(ctx, inputs)
	}
	out := make([][]float32, len(inputs))
	for i, input := range inputs {
		out[i] = defaultEmbedding(input)
	}
	return out, nil
}

func (m *MockEmbeddingClient) Model() string {
	if m.ModelName != "" {
		return m.ModelName
	}
	return "mock-embedding-model"
}

func defaultEmbedding(input string) []float32 {
	v := make([]float32, 8)
	for i, r := range input {
		v[i%8] += float32(r%31) / 31
	}
	var norm float32
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		v[0] = 1
		return v
	}
	// normalize so cosine similarity behaves
	inv := 1 / float32(math.Sqrt(float64(norm)))
	for i := range v {
		v[i] *= inv
	}
	return v
}
