// Package web serves the validation API: sessions holding an uploaded sheet,
// cell edits with live revalidation, rule authoring, and exports.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/sheetcheck/internal/config"
	"github.com/JonMunkholm/sheetcheck/internal/core"
	"github.com/JonMunkholm/sheetcheck/internal/export"
	mw "github.com/JonMunkholm/sheetcheck/internal/web/middleware"
)

// Server is the HTTP server for the validation service.
type Server struct {
	cfg      *config.Config
	sessions *core.SessionManager
	parses   *core.ParseLimiter
	sink     *export.PostgresSink // nil when database export is disabled
	router   *chi.Mux
	server   *http.Server

	cancel context.CancelFunc
}

// NewServer wires routes and middleware. sink may be nil.
func NewServer(cfg *config.Config, sessions *core.SessionManager, parses *core.ParseLimiter, sink *export.PostgresSink) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		parses:   parses,
		sink:     sink,
		router:   chi.NewRouter(),
		cancel:   cancel,
	}
	s.setupMiddleware()
	s.setupRoutes(ctx)
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
}

// setupRoutes configures all HTTP routes. ctx bounds the rate limiter
// cleanup goroutines.
func (s *Server) setupRoutes(ctx context.Context) {
	s.router.Get("/healthz", s.handleHealth)

	general := passThrough
	uploads := passThrough
	if s.cfg.Rate.Enabled {
		general = newRateLimiter(ctx, s.cfg.Rate.RequestsPerMinute, time.Minute).middleware
		uploads = newRateLimiter(ctx, s.cfg.Rate.UploadLimit, time.Minute).middleware
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.cfg.Security.RequireAPIKey, s.cfg.Security.APIKeys))
		r.Use(general)

		r.Get("/rule-kinds", s.handleRuleKinds)
		r.With(uploads).Post("/sessions", s.handleCreateSession)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Use(s.withSession)

			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)

			// Records
			r.With(uploads).Post("/upload", s.handleUpload)
			r.Put("/records", s.handleReplaceRecords)
			r.Patch("/cells", s.handleUpdateCell)
			r.Get("/errors", s.handleErrors)
			r.Get("/rows", s.handleRows)
			r.Get("/dimensions", s.handleDimensions)

			// Rules
			r.Get("/rules", s.handleListRules)
			r.Post("/rules", s.handleAddRule)
			r.Put("/rules", s.handleImportRules)
			r.Delete("/rules/{ruleID}", s.handleRemoveRule)

			// Exports
			r.Get("/export/data", s.handleExportData)
			r.Get("/export/rules", s.handleExportRules)
			r.Post("/export/db", s.handleExportDB)
		})
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
		"parses":   s.parses.Status(),
		"dbExport": s.sink.Enabled(),
	})
}

func passThrough(next http.Handler) http.Handler { return next }

const contentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; font-src 'self'"

// securityHeaders adds hardening headers to all responses.
func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if csp {
				h.Set("Content-Security-Policy", contentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v with the given status.
// Encoding errors are only logged since the header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
