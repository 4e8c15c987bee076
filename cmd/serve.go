package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/rfqpilot/internal/mcp"
	"github.com/ziadkadry99/rfqpilot/internal/quote"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing RFQ, bid comparison and share-link tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "rfqpilot MCP server started on stdio (database=%s)\n", cfg.Database.Driver)

		srv := mcpserver.NewServer(rfq.NewStore(database), quote.NewStore(database), cfg.FXOptions(), cfg.Server.BaseURL)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
