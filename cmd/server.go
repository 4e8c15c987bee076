package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/rfqpilot/internal/blob"
	"github.com/ziadkadry99/rfqpilot/internal/metrics"
	"github.com/ziadkadry99/rfqpilot/internal/server"
	"github.com/ziadkadry99/rfqpilot/internal/site"
)

var (
	serverPort    int
	serverOpen    bool
	serverReindex bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the rfqpilot API and website",
	Long:  `Starts the HTTP server with the buyer API, the supplier share-link endpoints, the drafting chat websocket, the marketing site and prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}
		logger := slog.Default()

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		blobs, err := blob.Open(ctx, cfg.BlobStore())
		if err != nil {
			return fmt.Errorf("opening blob store: %w", err)
		}

		// The site and share links work without AI, so a missing key only
		// disables the assistant.
		provider, err := createLLMProviderFromConfig(cfg)
		if err != nil {
			logger.Warn("AI provider unavailable, assistant features are disabled", "provider", cfg.Provider, "error", err)
			provider = nil
		}
		embedder, err := createEmbedderFromConfig(cfg)
		if err != nil {
			logger.Warn("embeddings unavailable, supplier matching uses keywords", "error", err)
			embedder = nil
		}
		tokens, err := createTokens(cfg)
		if err != nil {
			return err
		}

		srv, err := server.New(server.Config{
			Port:     cfg.Server.Port,
			BaseURL:  cfg.Server.BaseURL,
			DataDir:  cfg.DataDir,
			AllowAll: cfg.Server.AllowAllOrigins,
			FX:       cfg.FXOptions(),
		}, server.Deps{
			DB:       database,
			Tokens:   tokens,
			Provider: provider,
			Model:    cfg.Model,
			Embedder: embedder,
			Blobs:    blobs,
			Metrics:  metrics.New(),
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		if cfg.ImageModel != "" {
			srv.Gateway().ImageModel = cfg.ImageModel
		}
		if serverReindex {
			n, err := srv.Directory().Reindex(ctx)
			if err != nil {
				return fmt.Errorf("indexing suppliers: %w", err)
			}
			logger.Info("supplier index rebuilt", "suppliers", n)
		}

		// Graceful shutdown.
		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "rfqpilot server %s starting on port %d\n", Version, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", cfg.Database.Driver)
		fmt.Fprintf(os.Stderr, "  Blobs: %s\n", blobs.Driver())
		fmt.Fprintf(os.Stderr, "  Share links: %s\n", cfg.Server.BaseURL)
		if provider != nil {
			fmt.Fprintf(os.Stderr, "  AI: %s (%s)\n", provider.Name(), cfg.Model)
		}

		if serverOpen {
			go func() {
				time.Sleep(500 * time.Millisecond)
				site.OpenBrowser(fmt.Sprintf("http://localhost:%d/", cfg.Server.Port))
			}()
		}

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "port to listen on (overrides server.port)")
	serverCmd.Flags().BoolVar(&serverOpen, "open", false, "open the site in a browser once started")
	serverCmd.Flags().BoolVar(&serverReindex, "reindex", false, "re-embed every stored supplier before serving")
	rootCmd.AddCommand(serverCmd)
}
