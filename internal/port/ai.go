package port

import "context"

// GenerationParams bounds an LLM completion call. MaxTokens is the hard
// upper limit on generated tokens; there is no mid-stream cancellation
// beyond the context.
type GenerationParams struct {
	MaxTokens   int
	Temperature float64
}

// AIProvider abstracts the embedding and completion backends. Implementations
// can target OpenAI, DeepSeek, or any compatible API; embed and chat may use
// different endpoints, models and credentials.
type AIProvider interface {
	// ModelName returns the identifier of the chat model being used.
	ModelName() string

	// Embed generates a fixed-length vector embedding for the given text.
	// Input is truncated to the provider maximum, never rejected for length.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Complete sends a prompt and returns the full accumulated response.
	Complete(ctx context.Context, prompt string, params GenerationParams) (string, error)

	// CompleteStream sends a prompt and streams the response chunk-by-chunk
	// via channel; the channel is closed at stream end.
	CompleteStream(ctx context.Context, prompt string, params GenerationParams) (<-chan string, error)
}
