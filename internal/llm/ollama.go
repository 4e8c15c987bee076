package llm

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

// OllamaProvider talks to a local Ollama daemon. Only images reach vision
// models; other attachments are named in the prompt so the model knows
// they were left out.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaProvider(baseURL string, model string) *OllamaProvider {
	return &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

type ollamaChatRequest struct {
	Model     string          `json:"model"`
	Messages  []ollamaMessage `json:"messages"`
	Stream    bool            `json:"stream"`
	Options   ollamaOptions   `json:"options,omitempty"`
	Format    string          `json:"format,omitempty"`
	KeepAlive string          `json:"keep_alive,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Message         ollamaMessage `json:"message"`
	Model           string        `json:"model"`
	DoneReason      string        `json:"done_reason"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

func toOllamaMessage(msg Message) ollamaMessage {
	m := ollamaMessage{Role: string(msg.Role), Content: msg.Content}
	var skipped []string
	for _, a := range msg.Attachments {
		if a.IsImage() {
			m.Images = append(m.Images, a.Base64())
			continue
		}
		skipped = append(skipped, a.Name)
	}
	if len(skipped) > 0 {
		m.Content += fmt.Sprintf("\n\n[Attachments not readable by this model: %s]", strings.Join(skipped, ", "))
	}
	return m
}

func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	chat := ollamaChatRequest{
		Model:     model,
		Messages:  make([]ollamaMessage, 0, len(req.Messages)),
		Options:   ollamaOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens},
		KeepAlive: "10m",
	}
	for _, msg := range req.Messages {
		chat.Messages = append(chat.Messages, toOllamaMessage(msg))
	}
	if req.JSONMode {
		chat.Format = "json"
	}

	body, err := json.Marshal(chat)
	if err != nil {
		return nil, fmt.Errorf("marshal ollama request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ollama response: %w", err)
	}
	switch {
	case httpResp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("ollama has no model %q (run: ollama pull %s)", model, model)
	case httpResp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("ollama: status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out ollamaChatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}
	return &CompletionResponse{
		Content:      out.Message.Content,
		InputTokens:  out.PromptEvalCount,
		OutputTokens: out.EvalCount,
		Model:        out.Model,
		FinishReason: out.DoneReason,
	}, nil
}
