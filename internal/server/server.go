// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: the store comes in from cmd/server, and
// everything above it (token and password services, account and note
// services, handlers, middleware) is built and wired here.
//
//	cmd/server ──▶ sqlstore.Store
//	                  │
//	server.New ──▶ AuthService, NoteService ──▶ AuthHandler, NoteHandler ──▶ chi routes
//
// The server does not own the store. Whoever opened it closes it after
// Start returns.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/notes-api/internal/auth"
	"github.com/sakif/notes-api/internal/config"
	"github.com/sakif/notes-api/internal/handler"
	"github.com/sakif/notes-api/internal/middleware"
	"github.com/sakif/notes-api/internal/repository/sqlstore"
	"github.com/sakif/notes-api/internal/service"
)

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router    *chi.Mux
	config    *config.Config
	logger    *slog.Logger
	store     *sqlstore.Store
	tokens    *auth.TokenService
	passwords *auth.PasswordService
}

// Option customizes a Server before its routes are built.
type Option func(*Server)

// WithPasswordService replaces the default bcrypt cost. Tests use it with
// auth.NewPasswordServiceForTest.
func WithPasswordService(p *auth.PasswordService) Option {
	return func(s *Server) { s.passwords = p }
}

// New creates a Server serving cfg with the given store.
func New(cfg *config.Config, store *sqlstore.Store, logger *slog.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config is required")
	}
	if store == nil {
		return nil, errors.New("server: store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	tokens, err := auth.NewTokenService(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		logger:    logger,
		store:     store,
		tokens:    tokens,
		passwords: auth.NewPasswordService(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s, nil
}

// Handler returns the fully wired router. Tests serve it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /                            → liveness text (public)
//	GET    /healthz                     → store ping (public)
//	POST   /create-account              → register + token (public)
//	POST   /login                       → token (public)
//	GET    /get-user                    → caller's profile
//	POST   /add-note                    → create note
//	GET    /get-note/{noteId}           → single note
//	PUT    /edit-note/{noteId}          → partial update
//	GET    /get-all-notes               → caller's notes, pinned first
//	DELETE /delete-note/{noteId}        → delete
//	PUT    /update-note-pinned/{noteId} → set isPinned
//	GET    /search-notes?query=         → substring search
//
// Everything below /get-user sits behind auth.RequireAuth.
//
// Middleware order: RequestID must run before the logger so every line
// carries the id; Recoverer sits inside the logger so a panic is logged
// as the 500 it becomes.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(s.config.RequestTimeout))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	authService := service.NewAuthService(s.store, s.tokens, s.passwords, s.logger)
	noteService := service.NewNoteService(s.store, s.logger)

	statusHandler := handler.NewStatusHandler(s.store, s.logger)
	authHandler := handler.NewAuthHandler(authService, s.logger)
	noteHandler := handler.NewNoteHandler(noteService, s.logger)

	s.router.Get("/", statusHandler.HandleRoot)
	s.router.Get("/healthz", statusHandler.HandleHealth)

	s.router.Post("/create-account", authHandler.HandleCreateAccount)
	s.router.Post("/login", authHandler.HandleLogin)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(s.tokens, s.logger))

		r.Get("/get-user", authHandler.HandleGetUser)

		r.Post("/add-note", noteHandler.HandleAdd)
		r.Get("/get-note/{noteId}", noteHandler.HandleGet)
		r.Put("/edit-note/{noteId}", noteHandler.HandleEdit)
		r.Get("/get-all-notes", noteHandler.HandleList)
		r.Delete("/delete-note/{noteId}", noteHandler.HandleDelete)
		r.Put("/update-note-pinned/{noteId}", noteHandler.HandleSetPinned)
		r.Get("/search-notes", noteHandler.HandleSearch)
	})
}

// Start serves HTTP until ctx is canceled, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Give in-flight requests up to ShutdownTimeout to finish
//  3. Return; the caller closes the store afterwards
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("store", string(s.store.Dialect())),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
