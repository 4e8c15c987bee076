package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listRFQsTool defines the list_rfqs MCP tool.
var listRFQsTool = mcp.NewTool("list_rfqs",
	mcp.WithDescription("List RFQs, newest first, with their status and line count."),
	mcp.WithString("status",
		mcp.Description("Only list RFQs in this status"),
		mcp.Enum("draft", "sent", "archived"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of RFQs to return (default 20)"),
	),
)

// getRFQTool defines the get_rfq MCP tool.
var getRFQTool = mcp.NewTool("get_rfq",
	mcp.WithDescription("Get one RFQ with its line items and commercial terms as JSON."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("RFQ id"),
	),
)

// compareQuotesTool defines the compare_quotes MCP tool.
var compareQuotesTool = mcp.NewTool("compare_quotes",
	mcp.WithDescription("Compare the quotes received for an RFQ: best price, fastest delivery and a recommendation."),
	mcp.WithString("rfq_id",
		mcp.Required(),
		mcp.Description("RFQ id"),
	),
)

// encodeShareLinkTool defines the encode_share_link MCP tool.
var encodeShareLinkTool = mcp.NewTool("encode_share_link",
	mcp.WithDescription("Build the self-contained supplier link for an RFQ. Internal notes are never included."),
	mcp.WithString("rfq_id",
		mcp.Required(),
		mcp.Description("RFQ id"),
	),
)

// decodeShareLinkTool defines the decode_share_link MCP tool.
var decodeShareLinkTool = mcp.NewTool("decode_share_link",
	mcp.WithDescription("Decode a supplier or quote-response link and show the RFQ or quote it carries."),
	mcp.WithString("url",
		mcp.Required(),
		mcp.Description("The full share link"),
	),
)
