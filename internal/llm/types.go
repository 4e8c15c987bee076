package llm

import (
	"context"
	"encoding/base64"
	"strings"
)

// Provider is one model vendor. Complete must honor ctx cancellation; the
// gateway and the rate limiter wrap providers and rely on it.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
}

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Attachment is a binary file sent along with a message (an uploaded PDF or
// drawing) or returned by the model (an edited image).
type Attachment struct {
	Name     string
	MIMEType string
	Data     []byte
}

// IsImage reports whether the attachment is an image.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MIMEType, "image/")
}

// Base64 returns the data standard-base64 encoded.
func (a Attachment) Base64() string {
	return base64.StdEncoding.EncodeToString(a.Data)
}

// DataURL returns the attachment as a data: URL.
func (a Attachment) DataURL() string {
	return "data:" + a.MIMEType + ";base64," + a.Base64()
}

// Message represents a single message in a conversation.
type Message struct {
	Role        Role
	Content     string
	Attachments []Attachment
}

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
	// Grounding lets the model search the web before answering. Providers
	// without a search tool ignore it.
	Grounding bool
	// ImageOutput asks for generated images in the response.
	ImageOutput bool
}

// Source is a web page a grounded answer was based on.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
	Images       []Attachment
	Sources      []Source
}
