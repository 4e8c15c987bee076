package llm

import "strings"

// price is USD per million tokens, plus a flat fee per generated image.
type price struct {
	Input    float64
	Output   float64
	PerImage float64
}

// prices is keyed by bare model id; OpenRouter ids lose their vendor
// prefix before lookup.
var prices = map[string]price{
	"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
	"claude-haiku-4-5-20251001":  {Input: 1.00, Output: 5.00},

	"gpt-4o":      {Input: 2.50, Output: 10.00},
	"gpt-4o-mini": {Input: 0.15, Output: 0.60},

	"gemini-2.5-flash":       {Input: 0.30, Output: 2.50},
	"gemini-2.5-flash-image": {Input: 0.30, Output: 2.50, PerImage: 0.039},
	"gemini-2.5-pro":         {Input: 1.25, Output: 10.00},
}

func lookupPrice(model string) (price, bool) {
	if p, ok := prices[model]; ok {
		return p, true
	}
	if i := strings.LastIndex(model, "/"); i >= 0 {
		p, ok := prices[model[i+1:]]
		return p, ok
	}
	return price{}, false
}

// EstimateCost returns the USD cost of a text call, or 0 for unknown models.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	p, ok := lookupPrice(model)
	if !ok {
		return 0
	}
	return float64(inputTokens)/1e6*p.Input + float64(outputTokens)/1e6*p.Output
}

// ResponseCost prices a whole response including generated images.
// fallbackModel is used when the provider did not echo the model.
func ResponseCost(resp *CompletionResponse, fallbackModel string) float64 {
	if resp == nil {
		return 0
	}
	model := resp.Model
	if model == "" {
		model = fallbackModel
	}
	cost := EstimateCost(model, resp.InputTokens, resp.OutputTokens)
	if p, ok := lookupPrice(model); ok {
		cost += float64(len(resp.Images)) * p.PerImage
	}
	return cost
}
