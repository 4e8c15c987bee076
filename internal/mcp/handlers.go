package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/rfqpilot/internal/quote"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
	"github.com/ziadkadry99/rfqpilot/internal/sharelink"
)

// handleListRFQs lists stored RFQs.
func (s *Server) handleListRFQs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}
	filter := rfq.ListFilter{Status: rfq.Status(request.GetString("status", "")), Limit: limit}

	rfqs, err := s.rfqs.List(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing rfqs failed: %v", err)), nil
	}
	if len(rfqs) == 0 {
		return mcp.NewToolResultText("No RFQs found."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d RFQ(s):\n", len(rfqs)))
	for _, r := range rfqs {
		name := r.ProjectName
		if name == "" {
			name = "(untitled)"
		}
		sb.WriteString(fmt.Sprintf("\n- %s [%s] %s, %d line(s), created %s",
			r.ID, r.Status, name, len(r.LineItems), r.CreatedAt.Format("2006-01-02")))
	}
	sb.WriteString("\n")
	return mcp.NewToolResultText(sb.String()), nil
}

// handleGetRFQ returns one RFQ as JSON.
func (s *Server) handleGetRFQ(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}
	r, result := s.loadRFQ(ctx, id)
	if result != nil {
		return result, nil
	}
	return jsonResult(r)
}

// handleCompareQuotes ranks the quotes received for an RFQ.
func (s *Server) handleCompareQuotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("rfq_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: rfq_id"), nil
	}
	if _, result := s.loadRFQ(ctx, id); result != nil {
		return result, nil
	}

	quotes, err := s.quotes.ListByRFQ(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing quotes failed: %v", err)), nil
	}
	c, err := quote.Compare(quotes, s.fx)
	if errors.Is(err, quote.ErrNoQuotes) {
		return mcp.NewToolResultText("No quotes received yet for this RFQ."), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("comparison failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatComparison(c)), nil
}

// handleEncodeShareLink builds the supplier link for an RFQ.
func (s *Server) handleEncodeShareLink(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("rfq_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: rfq_id"), nil
	}
	r, result := s.loadRFQ(ctx, id)
	if result != nil {
		return result, nil
	}
	link, err := sharelink.RFQLink(s.baseURL, r)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("building link failed: %v", err)), nil
	}
	return mcp.NewToolResultText(link), nil
}

// handleDecodeShareLink shows what a share link carries. Quote links are
// matched to the stored RFQ when it exists.
func (s *Server) handleDecodeShareLink(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: url"), nil
	}
	res, err := sharelink.DecodeURL(ctx, raw, s.rfqs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid share link: %v", err)), nil
	}
	return jsonResult(res)
}

// loadRFQ fetches an RFQ or returns the tool error to send instead.
func (s *Server) loadRFQ(ctx context.Context, id string) (*rfq.Rfq, *mcp.CallToolResult) {
	r, err := s.rfqs.Get(ctx, id)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("loading rfq failed: %v", err))
	}
	if r == nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("No RFQ found with id %q.", id))
	}
	return r, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// formatComparison renders a comparison for agent consumption.
func formatComparison(c *quote.Comparison) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Compared %d quote(s) in %s", len(c.Ranked), c.Currency))
	if c.Converted {
		sb.WriteString(" (converted)")
	}
	sb.WriteString(":\n")

	for _, r := range c.Ranked {
		sb.WriteString(fmt.Sprintf("\n- %s: %s %.2f", r.Quote.SupplierName, c.Currency, r.NormalizedTotal))
		if r.Quote.LeadTime != "" {
			sb.WriteString(fmt.Sprintf(", lead time %s", r.Quote.LeadTime))
		}
	}
	for _, q := range c.Unranked {
		sb.WriteString(fmt.Sprintf("\n- %s: %s %.2f (no exchange rate, not ranked)", q.SupplierName, q.Currency, q.Total))
	}
	sb.WriteString("\n")

	if c.BestPrice != nil {
		sb.WriteString(fmt.Sprintf("\nBest price: %s\n", c.BestPrice.Quote.SupplierName))
	}
	if c.Fastest != nil {
		sb.WriteString(fmt.Sprintf("Fastest: %s\n", c.Fastest.Quote.SupplierName))
	}
	if c.Recommendation != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", c.Recommendation))
	}
	return sb.String()
}
