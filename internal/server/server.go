package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/rfqpilot/internal/activity"
	"github.com/ziadkadry99/rfqpilot/internal/assistant"
	"github.com/ziadkadry99/rfqpilot/internal/blob"
	"github.com/ziadkadry99/rfqpilot/internal/db"
	"github.com/ziadkadry99/rfqpilot/internal/embeddings"
	"github.com/ziadkadry99/rfqpilot/internal/llm"
	"github.com/ziadkadry99/rfqpilot/internal/metrics"
	"github.com/ziadkadry99/rfqpilot/internal/purchaseorder"
	"github.com/ziadkadry99/rfqpilot/internal/quote"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
	"github.com/ziadkadry99/rfqpilot/internal/sharelink"
	"github.com/ziadkadry99/rfqpilot/internal/site"
	"github.com/ziadkadry99/rfqpilot/internal/suppliers"
	"github.com/ziadkadry99/rfqpilot/internal/user"
	"github.com/ziadkadry99/rfqpilot/internal/workspace"
)

// Config holds server configuration.
type Config struct {
	Port     int
	BaseURL  string // page share links point at
	DataDir  string // where the supplier index is persisted; empty keeps it in memory
	AllowAll bool   // allow all CORS origins (dev mode)
	FX       quote.Options
}

// Deps are the services the server wires into the feature packages. Only
// DB and Tokens are required.
type Deps struct {
	DB       *db.DB
	Tokens   *user.Tokens
	Provider llm.Provider
	Model    string
	Embedder embeddings.Embedder
	Blobs    blob.Store
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Server is the rfqpilot HTTP API plus the marketing site.
type Server struct {
	cfg        Config
	deps       Deps
	rfqs       *rfq.Store
	quotes     *quote.Store
	users      *user.Store
	activity   *activity.Store
	directory  *suppliers.Directory
	index      *suppliers.Index
	gateway    *assistant.Gateway
	site       *site.Site
	router     chi.Router
	httpServer *http.Server
}

// New builds the stores and services and mounts every route.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.DB == nil || deps.Tokens == nil {
		return nil, fmt.Errorf("server needs a database and a token issuer")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics != nil {
		deps.Provider = deps.Metrics.InstrumentProvider(deps.Provider)
	}

	s := &Server{
		cfg:      cfg,
		deps:     deps,
		rfqs:     rfq.NewStore(deps.DB),
		quotes:   quote.NewStore(deps.DB),
		users:    user.NewStore(deps.DB),
		activity: activity.NewStore(deps.DB),
		gateway:  assistant.New(deps.Provider, deps.Model, deps.Logger),
	}

	if deps.Embedder != nil {
		idx, err := suppliers.NewIndex(deps.Embedder)
		if err != nil {
			return nil, fmt.Errorf("creating supplier index: %w", err)
		}
		if cfg.DataDir != "" {
			if err := idx.Load(cfg.DataDir); err != nil {
				deps.Logger.Warn("loading supplier index failed", "error", err)
			}
		}
		s.index = idx
	}
	s.directory = suppliers.NewDirectory(suppliers.NewStore(deps.DB), s.index, s.gateway, deps.Logger)

	pages, err := site.New(func(r *http.Request) string {
		return workspace.MatchLang(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
	})
	if err != nil {
		return nil, fmt.Errorf("loading site: %w", err)
	}
	s.site = pages

	s.router = s.buildRouter()
	return s, nil
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.Middleware)
	}

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}

	received := s.recordSupplier
	share := &sharelink.Routes{Rfqs: s.rfqs, Activity: s.activity, BaseURL: s.cfg.BaseURL}
	chatter := &workspace.Chatter{AI: s.gateway, Rfqs: s.rfqs, Activity: s.activity, Logger: s.deps.Logger}
	ws := &workspace.Routes{
		Chatter:  chatter,
		Rfqs:     s.rfqs,
		Quotes:   s.quotes,
		Activity: s.activity,
		Metrics:  s.deps.Metrics,
		Logger:   s.deps.Logger,
		Received: received,
	}

	// The websocket outlives the request timeout, so it is mounted first.
	r.Group(func(r chi.Router) {
		r.Use(user.RequireAuth(s.deps.Tokens))
		workspace.RegisterWebSocketRoutes(r, ws)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Accounts and the marketing site are public.
		user.RegisterRoutes(r, s.users, s.deps.Tokens)
		s.site.RegisterRoutes(r)

		// Suppliers and anyone opening a link need no account.
		r.Group(func(r chi.Router) {
			r.Use(user.OptionalAuth(s.deps.Tokens))
			sharelink.RegisterPublicRoutes(r, share)
			workspace.RegisterPublicRoutes(r, ws)
		})

		// Buyer API.
		r.Group(func(r chi.Router) {
			r.Use(user.RequireAuth(s.deps.Tokens))
			rfq.RegisterRoutes(r, s.rfqs, s.activity)
			quote.RegisterRoutes(r, &quote.Routes{
				Quotes:   s.quotes,
				Rfqs:     s.rfqs,
				Activity: s.activity,
				FX:       s.cfg.FX,
				Received: received,
			})
			assistant.RegisterRoutes(r, &assistant.Routes{
				AI:       s.gateway,
				Rfqs:     s.rfqs,
				Activity: s.activity,
				Blobs:    s.deps.Blobs,
				Logger:   s.deps.Logger,
			})
			suppliers.RegisterRoutes(r, s.directory, s.rfqs)
			purchaseorder.RegisterRoutes(r, &purchaseorder.Routes{
				Quotes:   s.quotes,
				Rfqs:     s.rfqs,
				Users:    s.users,
				Activity: s.activity,
				Blobs:    s.deps.Blobs,
				Logger:   s.deps.Logger,
			})
			sharelink.RegisterRoutes(r, share)
			workspace.RegisterRoutes(r, ws)
		})
	})

	return r
}

// recordSupplier adds the supplier of a stored quote to the directory.
func (s *Server) recordSupplier(r *http.Request, q *quote.Quote) {
	found, err := s.rfqs.Get(r.Context(), q.RfqID)
	if err != nil {
		s.deps.Logger.Warn("loading rfq for supplier directory failed", "rfq", q.RfqID, "error", err)
	}
	if err := s.directory.RecordQuote(r.Context(), q, found); err != nil {
		s.deps.Logger.Warn("recording supplier failed", "supplier", q.SupplierName, "error", err)
	}
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Database returns the database connection.
func (s *Server) Database() *db.DB { return s.deps.DB }

// Directory returns the supplier directory.
func (s *Server) Directory() *suppliers.Directory { return s.directory }

// Gateway returns the AI gateway.
func (s *Server) Gateway() *assistant.Gateway { return s.gateway }

// ServerConfig returns the server configuration.
func (s *Server) ServerConfig() Config { return s.cfg }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.deps.Logger.Info("rfqpilot server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and persists the supplier index.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.index != nil && s.cfg.DataDir != "" {
		if err := s.index.Persist(s.cfg.DataDir); err != nil {
			s.deps.Logger.Warn("persisting supplier index failed", "error", err)
		}
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
