package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const googleAPIBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GoogleProvider implements Provider using the Google Gemini API via direct
// HTTP. It is the only provider that supports every request feature:
// inline attachments, search grounding and image output.
type GoogleProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGoogleProvider creates a new Google Gemini provider.
func NewGoogleProvider(apiKey string, model string) *GoogleProvider {
	return &GoogleProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: googleAPIBaseURL,
		client:  &http.Client{},
	}
}

func (p *GoogleProvider) Name() string {
	return "google"
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
	Tools             []geminiTool            `json:"tools,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens    int      `json:"maxOutputTokens,omitempty"`
	Temperature        float64  `json:"temperature"`
	ResponseMIMEType   string   `json:"responseMimeType,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate    `json:"candidates"`
	UsageMetadata *geminiUsageMetadata `json:"usageMetadata"`
	Error         *geminiError         `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content           *geminiContent    `json:"content"`
	FinishReason      string            `json:"finishReason"`
	GroundingMetadata *geminiGroundMeta `json:"groundingMetadata,omitempty"`
}

type geminiGroundMeta struct {
	GroundingChunks []struct {
		Web *struct {
			URI   string `json:"uri"`
			Title string `json:"title"`
		} `json:"web,omitempty"`
	} `json:"groundingChunks"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func geminiParts(msg Message) []geminiPart {
	parts := make([]geminiPart, 0, len(msg.Attachments)+1)
	for _, a := range msg.Attachments {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{MIMEType: a.MIMEType, Data: a.Base64()}})
	}
	if msg.Content == "" && len(parts) > 0 {
		return parts
	}
	return append(parts, geminiPart{Text: msg.Content})
}

func (p *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	var systemParts []geminiPart
	var contents []geminiContent
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			systemParts = append(systemParts, geminiPart{Text: msg.Content})
		case RoleUser:
			contents = append(contents, geminiContent{Role: "user", Parts: geminiParts(msg)})
		case RoleAssistant:
			contents = append(contents, geminiContent{Role: "model", Parts: geminiParts(msg)})
		}
	}

	// Gemini rejects a request without contents.
	if len(contents) == 0 {
		contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: " "}}})
	}

	apiReq := geminiRequest{
		Contents: contents,
		GenerationConfig: &geminiGenerationConfig{
			Temperature: req.Temperature,
		},
	}
	if len(systemParts) > 0 {
		apiReq.SystemInstruction = &geminiContent{Parts: systemParts}
	}
	if req.MaxTokens > 0 {
		apiReq.GenerationConfig.MaxOutputTokens = req.MaxTokens
	}
	// JSON output and the search tool cannot be combined; grounded calls
	// rely on the prompt asking for JSON instead.
	switch {
	case req.Grounding:
		apiReq.Tools = []geminiTool{{GoogleSearch: &struct{}{}}}
	case req.JSONMode:
		apiReq.GenerationConfig.ResponseMIMEType = "application/json"
	}
	if req.ImageOutput {
		apiReq.GenerationConfig.ResponseModalities = []string{"TEXT", "IMAGE"}
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", p.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gemini response: %w", err)
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gemini response: %w", err)
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("gemini API error (%s): %s", apiResp.Error.Status, apiResp.Error.Message)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	resp := &CompletionResponse{Model: model}
	if len(apiResp.Candidates) > 0 {
		cand := apiResp.Candidates[0]
		resp.FinishReason = cand.FinishReason
		if cand.Content != nil {
			for i, part := range cand.Content.Parts {
				if part.InlineData != nil {
					data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
					if err != nil {
						return nil, fmt.Errorf("decoding gemini image: %w", err)
					}
					resp.Images = append(resp.Images, Attachment{
						Name:     fmt.Sprintf("image-%d", i),
						MIMEType: part.InlineData.MIMEType,
						Data:     data,
					})
					continue
				}
				resp.Content += part.Text
			}
		}
		if cand.GroundingMetadata != nil {
			for _, chunk := range cand.GroundingMetadata.GroundingChunks {
				if chunk.Web != nil {
					resp.Sources = append(resp.Sources, Source{Title: chunk.Web.Title, URL: chunk.Web.URI})
				}
			}
		}
	}

	if apiResp.UsageMetadata != nil {
		resp.InputTokens = apiResp.UsageMetadata.PromptTokenCount
		resp.OutputTokens = apiResp.UsageMetadata.CandidatesTokenCount
	}
	return resp, nil
}
