package embeddings

import (
	"context"
	"fmt"
	"os"
)

// Embedder turns supplier profiles and search text into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// Task says whether texts are stored documents or search queries. Some
// models embed the two differently.
type Task int

const (
	TaskDocument Task = iota
	TaskQuery
)

type taskKey struct{}

// WithTask marks every Embed call made with ctx as task.
func WithTask(ctx context.Context, task Task) context.Context {
	return context.WithValue(ctx, taskKey{}, task)
}

// TaskFrom returns the task set on ctx, TaskDocument by default.
func TaskFrom(ctx context.Context) Task {
	if t, ok := ctx.Value(taskKey{}).(Task); ok {
		return t
	}
	return TaskDocument
}

// New creates the embedder for the supplier index. An empty provider
// returns nil, nil: the index is disabled and matching falls back to
// keywords.
func New(provider, model string) (Embedder, error) {
	switch provider {
	case "", "none":
		return nil, nil
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		if model == "" {
			model = string(ModelTextEmbedding3Small)
		}
		return NewOpenAIEmbedder(apiKey, OpenAIModel(model)), nil
	case "google":
		apiKey := os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is not set")
		}
		if model == "" {
			model = string(ModelGeminiEmbedding001)
		}
		return NewGoogleEmbedder(apiKey, GoogleModel(model)), nil
	case "ollama":
		if model == "" {
			model = "nomic-embed-text"
		}
		return NewOllamaEmbedder(model, 768, os.Getenv("OLLAMA_HOST")), nil
	default:
		return nil, fmt.Errorf("unsupported embeddings provider: %s", provider)
	}
}
