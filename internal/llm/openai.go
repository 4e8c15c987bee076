package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenAIProvider implements Provider using the OpenAI Chat Completions API.
// OpenRouter speaks the same API and is served by the same type.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	name   string
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		model:  model,
		name:   "openai",
	}
}

// NewOpenRouterProvider creates a provider for OpenRouter.
func NewOpenRouterProvider(apiKey string, model string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = openRouterBaseURL
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		name:   "openrouter",
	}
}

// NewOpenAICompatibleProvider creates a provider for any server exposing
// the OpenAI chat API at baseURL.
func NewOpenAICompatibleProvider(name, baseURL, apiKey, model string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		name:   name,
	}
}

func (p *OpenAIProvider) Name() string {
	return p.name
}

// openAIMessage converts a message. Images are sent as data URLs; the chat
// API takes no other binary attachments, so those are named in the text.
func openAIMessage(msg Message) openai.ChatCompletionMessage {
	if len(msg.Attachments) == 0 {
		return openai.ChatCompletionMessage{Role: string(msg.Role), Content: msg.Content}
	}
	text := msg.Content
	var images []openai.ChatMessagePart
	for _, a := range msg.Attachments {
		if a.IsImage() {
			images = append(images, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: a.DataURL()},
			})
			continue
		}
		text += fmt.Sprintf("\n\n[attachment %s (%s) could not be included]", a.Name, a.MIMEType)
	}
	parts := append([]openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: text}}, images...)
	return openai.ChatCompletionMessage{Role: string(msg.Role), MultiContent: parts}
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openAIMessage(msg))
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	}

	if req.JSONMode {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", p.name, err)
	}

	out := &CompletionResponse{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Model:        resp.Model,
	}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
		out.FinishReason = string(resp.Choices[0].FinishReason)
	}
	return out, nil
}
