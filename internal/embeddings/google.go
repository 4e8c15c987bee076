package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const googleEmbedBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GoogleModel is a Gemini embedding model name.
type GoogleModel string

const ModelGeminiEmbedding001 GoogleModel = "gemini-embedding-001"

// googleDimensions is the reduced output size requested for supplier
// profiles. The model's native size is 3072.
const googleDimensions = 768

// GoogleEmbedder calls the Gemini batchEmbedContents endpoint.
type GoogleEmbedder struct {
	apiKey     string
	model      GoogleModel
	baseURL    string
	httpClient *http.Client
}

func NewGoogleEmbedder(apiKey string, model GoogleModel) *GoogleEmbedder {
	return &GoogleEmbedder{
		apiKey:     apiKey,
		model:      model,
		baseURL:    googleEmbedBaseURL,
		httpClient: &http.Client{Timeout: time.Minute},
	}
}

func (e *GoogleEmbedder) Name() string     { return string(e.model) }
func (e *GoogleEmbedder) Dimensions() int { return googleDimensions }

type googleEmbedRequest struct {
	Model                string        `json:"model"`
	Content              googleContent `json:"content"`
	TaskType             string        `json:"taskType,omitempty"`
	OutputDimensionality int           `json:"outputDimensionality,omitempty"`
}

type googleBatchRequest struct {
	Requests []googleEmbedRequest `json:"requests"`
}

type googleContent struct {
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text string `json:"text"`
}

type googleBatchResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

func googleTaskType(t Task) string {
	if t == TaskQuery {
		return "RETRIEVAL_QUERY"
	}
	return "RETRIEVAL_DOCUMENT"
}

func (e *GoogleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	model := "models/" + string(e.model)
	task := googleTaskType(TaskFrom(ctx))
	batch := googleBatchRequest{Requests: make([]googleEmbedRequest, len(texts))}
	for i, text := range texts {
		batch.Requests[i] = googleEmbedRequest{
			Model:                model,
			Content:              googleContent{Parts: []googlePart{{Text: text}}},
			TaskType:             task,
			OutputDimensionality: googleDimensions,
		}
	}
	body, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("marshal google embed request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:batchEmbedContents", e.baseURL, e.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create google embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("google embed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result googleBatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode google embed response: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("google returned %d embeddings, expected %d", len(result.Embeddings), len(texts))
	}
	out := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}
