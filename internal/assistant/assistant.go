// Package assistant is the AI gateway: one method per use case, each
// building its prompt, calling the provider and decoding the reply.
// Every method returns an error on failure; callers decide the fallback.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ziadkadry99/rfqpilot/internal/llm"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
)

// ErrNoImage is returned when an image edit produced no image.
var ErrNoImage = errors.New("model returned no image")

// ErrNoProvider is returned when no AI provider is configured.
var ErrNoProvider = errors.New("no AI provider configured")

// ErrEmptyInput is returned when there is nothing to send to the model.
var ErrEmptyInput = errors.New("nothing to parse")

// maxHistory bounds how many chat turns are replayed to the model.
const maxHistory = 20

// Gateway wraps a provider with the product's prompts.
type Gateway struct {
	provider llm.Provider
	model    string
	// ImageModel overrides the model for image edits.
	ImageModel string
	logger     *slog.Logger
}

// New creates a gateway. A nil logger uses slog.Default.
func New(provider llm.Provider, model string, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{provider: provider, model: model, logger: logger}
}

// Supplier is a company suggested by discovery.
type Supplier struct {
	Name         string   `json:"name"`
	Website      string   `json:"website"`
	Email        string   `json:"email"`
	Region       string   `json:"region"`
	Capabilities []string `json:"capabilities"`
	Reason       string   `json:"reason"`
}

// MarketInsight is a grounded answer to a market question.
type MarketInsight struct {
	Summary    string       `json:"summary"`
	PriceTrend string       `json:"price_trend"`
	Sources    []llm.Source `json:"sources"`
}

// ChatReply is the assistant's answer in the drafting chat. Parsed holds
// line items and terms to merge into the RFQ, or nil.
type ChatReply struct {
	Reply  string   `json:"reply"`
	Parsed *rfq.Rfq `json:"rfq,omitempty"`
}

func (g *Gateway) complete(ctx context.Context, useCase string, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if g.provider == nil {
		return nil, fmt.Errorf("%s: %w", useCase, ErrNoProvider)
	}
	if req.Model == "" {
		req.Model = g.model
	}
	resp, err := g.provider.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", useCase, err)
	}
	g.logger.Debug("ai call",
		"use_case", useCase,
		"provider", g.provider.Name(),
		"model", resp.Model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"cost_usd", llm.ResponseCost(resp, req.Model),
	)
	return resp, nil
}

// ParseRFQ turns free text plus uploaded files into an RFQ fragment. The
// returned line items are numbered from 1.
func (g *Gateway) ParseRFQ(ctx context.Context, text string, files []llm.Attachment) (*rfq.Rfq, error) {
	if strings.TrimSpace(text) == "" && len(files) == 0 {
		return nil, ErrEmptyInput
	}
	if strings.TrimSpace(text) == "" {
		text = "Extract the RFQ from the attached files."
	}
	resp, err := g.complete(ctx, "parse rfq", llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: parseSystemPrompt},
			{Role: llm.RoleUser, Content: text, Attachments: files},
		},
		MaxTokens:   8192,
		Temperature: 0.1,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}
	var parsed rfq.Rfq
	if err := decodeReply(resp.Content, &parsed); err != nil {
		return nil, fmt.Errorf("parse rfq: %w", err)
	}
	normalizeParsed(&parsed)
	return &parsed, nil
}

// normalizeParsed clears fields the model must not set and numbers lines.
func normalizeParsed(r *rfq.Rfq) {
	r.ID, r.OwnerID, r.Status = "", "", ""
	r.InternalNotes, r.Risks, r.Reconstructed = "", nil, false
	items := r.LineItems[:0]
	for _, it := range r.LineItems {
		it.Description = strings.TrimSpace(it.Description)
		if it.Description == "" && it.Grade == "" && it.ProductType == "" {
			continue
		}
		items = append(items, it)
	}
	r.LineItems = rfq.Renumber(items)
	r.CommercialTerms.Currency = strings.ToUpper(strings.TrimSpace(r.CommercialTerms.Currency))
}

// Chat answers a drafting message in the context of the current RFQ.
// A reply that is not JSON is returned as plain text without a fragment.
func (g *Gateway) Chat(ctx context.Context, current *rfq.Rfq, history []llm.Message, message string, files []llm.Attachment) (*ChatReply, error) {
	if strings.TrimSpace(message) == "" && len(files) == 0 {
		return nil, ErrEmptyInput
	}
	state, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("encoding rfq: %w", err)
	}

	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	msgs := make([]llm.Message, 0, len(history)+3)
	msgs = append(msgs,
		llm.Message{Role: llm.RoleSystem, Content: chatSystemPrompt},
		llm.Message{Role: llm.RoleSystem, Content: "Current RFQ:\n" + string(state)},
	)
	for _, m := range history {
		if m.Role == llm.RoleUser || m.Role == llm.RoleAssistant {
			msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
		}
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: message, Attachments: files})

	resp, err := g.complete(ctx, "chat", llm.CompletionRequest{
		Messages:    msgs,
		MaxTokens:   4096,
		Temperature: 0.3,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	var reply ChatReply
	if err := decodeReply(resp.Content, &reply); err != nil {
		g.logger.Warn("chat reply was not JSON", "error", err)
		return &ChatReply{Reply: strings.TrimSpace(resp.Content)}, nil
	}
	if reply.Parsed != nil {
		normalizeParsed(reply.Parsed)
	}
	return &reply, nil
}

// AuditRisk reviews an RFQ for specification gaps.
func (g *Gateway) AuditRisk(ctx context.Context, r *rfq.Rfq) ([]rfq.RiskAnnotation, error) {
	state, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding rfq: %w", err)
	}
	resp, err := g.complete(ctx, "audit risk", llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: auditSystemPrompt},
			{Role: llm.RoleUser, Content: string(state)},
		},
		MaxTokens:   4096,
		Temperature: 0.1,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	raw, err := ExtractJSON(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("audit risk: %w", err)
	}
	var out struct {
		Risks []rfq.RiskAnnotation `json:"risks"`
	}
	// Some models answer with the bare array.
	if strings.HasPrefix(raw, "[") {
		err = json.Unmarshal([]byte(raw), &out.Risks)
	} else {
		err = json.Unmarshal([]byte(raw), &out)
	}
	if err != nil {
		return nil, fmt.Errorf("audit risk: json parse: %w", err)
	}
	return normalizeRisks(out.Risks, len(r.LineItems)), nil
}

func normalizeRisks(in []rfq.RiskAnnotation, lines int) []rfq.RiskAnnotation {
	out := make([]rfq.RiskAnnotation, 0, len(in))
	for _, risk := range in {
		risk.Message = strings.TrimSpace(risk.Message)
		if risk.Message == "" {
			continue
		}
		switch sev := rfq.Severity(strings.ToLower(string(risk.Severity))); sev {
		case rfq.SeverityLow, rfq.SeverityMedium, rfq.SeverityHigh:
			risk.Severity = sev
		default:
			risk.Severity = rfq.SeverityMedium
		}
		if risk.Line < 0 || risk.Line > lines {
			risk.Line = 0
		}
		out = append(out, risk)
	}
	return out
}

// DiscoverSuppliers searches the web for suppliers able to quote the RFQ.
func (g *Gateway) DiscoverSuppliers(ctx context.Context, r *rfq.Rfq, region string) ([]Supplier, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Region: %s\n", orDefault(region, "any"))
	if r.CommercialTerms.DeliveryLocation != "" {
		fmt.Fprintf(&b, "Delivery location: %s\n", r.CommercialTerms.DeliveryLocation)
	}
	b.WriteString("Requested items:\n")
	for _, it := range r.LineItems {
		fmt.Fprintf(&b, "- %s %s %s\n", it.ProductType, it.Grade, it.Description)
	}

	resp, err := g.complete(ctx, "discover suppliers", llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: discoverSystemPrompt},
			{Role: llm.RoleUser, Content: b.String()},
		},
		MaxTokens:   4096,
		Temperature: 0.2,
		Grounding:   true,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Suppliers []Supplier `json:"suppliers"`
	}
	if err := decodeReply(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("discover suppliers: %w", err)
	}

	seen := map[string]bool{}
	suppliers := make([]Supplier, 0, len(out.Suppliers))
	for _, s := range out.Suppliers {
		s.Name = strings.TrimSpace(s.Name)
		key := strings.ToLower(s.Name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if s.Region == "" {
			s.Region = region
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, nil
}

// MarketData answers a market question with web grounding. When the model
// ignores the JSON format its text becomes the summary.
func (g *Gateway) MarketData(ctx context.Context, query string) (*MarketInsight, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyInput
	}
	resp, err := g.complete(ctx, "market data", llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: marketSystemPrompt},
			{Role: llm.RoleUser, Content: query},
		},
		MaxTokens:   2048,
		Temperature: 0.2,
		Grounding:   true,
	})
	if err != nil {
		return nil, err
	}

	var insight MarketInsight
	if err := decodeReply(resp.Content, &insight); err != nil || insight.Summary == "" {
		insight = MarketInsight{Summary: strings.TrimSpace(resp.Content)}
	}
	if insight.PriceTrend == "" {
		insight.PriceTrend = "unknown"
	}
	insight.Sources = resp.Sources
	return &insight, nil
}

// EditImage applies an instruction to an image, e.g. marking up a drawing.
func (g *Gateway) EditImage(ctx context.Context, image llm.Attachment, instruction string) (*llm.Attachment, error) {
	if !image.IsImage() {
		return nil, fmt.Errorf("edit image: %s is not an image", image.MIMEType)
	}
	resp, err := g.complete(ctx, "edit image", llm.CompletionRequest{
		Model: g.ImageModel,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: editImageInstruction + instruction, Attachments: []llm.Attachment{image}},
		},
		Temperature: 0.4,
		ImageOutput: true,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Images) == 0 {
		return nil, ErrNoImage
	}
	return &resp.Images[0], nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
