package embeddings

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// openAIBatch is the most inputs sent per embeddings request.
const openAIBatch = 100

// OpenAIModel is an OpenAI embedding model name.
type OpenAIModel string

const (
	ModelTextEmbedding3Small OpenAIModel = "text-embedding-3-small"
	ModelTextEmbedding3Large OpenAIModel = "text-embedding-3-large"
)

func (m OpenAIModel) dimensions() int {
	if m == ModelTextEmbedding3Large {
		return 3072
	}
	return 1536
}

// OpenAIEmbedder embeds through the OpenAI embeddings API or any server
// that mimics it.
type OpenAIEmbedder struct {
	client *openai.Client
	model  OpenAIModel
}

func NewOpenAIEmbedder(apiKey string, model OpenAIModel) *OpenAIEmbedder {
	return &OpenAIEmbedder{client: openai.NewClient(apiKey), model: model}
}

// NewOpenAICompatibleEmbedder targets the embeddings API at baseURL.
func NewOpenAICompatibleEmbedder(baseURL, apiKey string, model OpenAIModel) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAIEmbedder{client: openai.NewClientWithConfig(cfg), model: model}
}

func (e *OpenAIEmbedder) Name() string     { return string(e.model) }
func (e *OpenAIEmbedder) Dimensions() int { return e.model.dimensions() }

// Embed ignores the task; OpenAI models embed queries and documents alike.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += openAIBatch {
		batch := texts[start:min(start+openAIBatch, len(texts))]
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embeddings: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("openai returned %d embeddings, expected %d", len(resp.Data), len(batch))
		}
		// Data carries its own index; the API does not promise order.
		vecs := make([][]float32, len(batch))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(batch) {
				return nil, fmt.Errorf("openai returned embedding index %d out of range", d.Index)
			}
			vecs[d.Index] = d.Embedding
		}
		out = append(out, vecs...)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
