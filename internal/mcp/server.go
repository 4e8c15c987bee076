package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/rfqpilot/internal/quote"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes RFQ tools to agents.
type Server struct {
	rfqs    *rfq.Store
	quotes  *quote.Store
	fx      quote.Options
	baseURL string
	mcp     *server.MCPServer
}

// NewServer creates a new MCP server. baseURL is the page share links point
// at.
func NewServer(rfqs *rfq.Store, quotes *quote.Store, fx quote.Options, baseURL string) *Server {
	s := &Server{
		rfqs:    rfqs,
		quotes:  quotes,
		fx:      fx,
		baseURL: baseURL,
	}

	s.mcp = server.NewMCPServer(
		"rfqpilot",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listRFQsTool, s.handleListRFQs)
	s.mcp.AddTool(getRFQTool, s.handleGetRFQ)
	s.mcp.AddTool(compareQuotesTool, s.handleCompareQuotes)
	s.mcp.AddTool(encodeShareLinkTool, s.handleEncodeShareLink)
	s.mcp.AddTool(decodeShareLinkTool, s.handleDecodeShareLink)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
