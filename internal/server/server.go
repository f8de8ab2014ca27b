// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects the store, services,
// handlers and middleware, and decides:
//   - Which URL patterns map to which handler functions
//   - What middleware runs on which routes
//   - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go loads config.Config and the logger
//	server.New():  store.Open → AuthService, TodoService → handlers → routes
//
// Everything is assembled here (the "composition root"), so no other
// package needs to know which database backend is in use.
package server

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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/todolist/internal/auth"
	"github.com/sakif/todolist/internal/config"
	"github.com/sakif/todolist/internal/handler"
	"github.com/sakif/todolist/internal/middleware"
	"github.com/sakif/todolist/internal/repository"
	"github.com/sakif/todolist/internal/repository/store"
	"github.com/sakif/todolist/internal/service"
	"github.com/sakif/todolist/web"
)

// shutdownTimeout is how long in-flight requests get after SIGINT/SIGTERM.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store. When the server shuts down it closes the store
// so SQLite flushes its WAL and network backends release their pools.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store
}

// New opens the store named by cfg.DatabaseURL and builds the server on it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	st, err := store.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	s, err := NewWithStore(cfg, st, logger)
	if err != nil {
		st.Close()
		return nil, err
	}
	return s, nil
}

// NewWithStore builds the server on an already opened store. The server
// takes ownership of st and closes it when Start returns.
func NewWithStore(cfg *config.Config, st repository.Store, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  st,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /                  → todo page (protected)
//	GET    /login, /register  → auth pages (guest only)
//	GET    /static/*          → embedded CSS/JS
//	GET    /healthz           → store ping
//	POST   /api/auth/register
//	POST   /api/auth/login
//	GET    /api/auth/logout
//	GET    /api/auth/me
//	GET    /api[?mongoId=ID]  → list, or fetch one
//	POST   /api               → create
//	PUT    /api?mongoId=ID    → partial update
//	DELETE /api?mongoId=ID    → delete
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: unique id per request, picked up by the logger
//  2. RealIP: client IP from proxy headers
//  3. Recoverer: panics become 500s instead of crashing the process
//  4. Logger: one line per request
//  5. Authenticate: resolves the session cookie into an Identity for
//     every handler. It never rejects a request on its own.
//
// The page group additionally runs auth.Gate, which redirects (307)
// between the guest-only and protected pages.
func (s *Server) setupRoutes() error {
	cfg := s.config

	// === Services ===
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(cfg.BcryptCost)

	authService := service.NewAuthService(s.store.Users(), tokens, passwords, s.logger)
	todoService := service.NewTodoService(s.store.Todos(), s.logger)

	// === Handlers ===
	cookies := auth.SessionCookies{Secure: cfg.CookieSecure, TTL: tokens.TTL()}
	authHandler := handler.NewAuthHandler(authService, cookies, s.logger)
	todoHandler := handler.NewTodoHandler(todoService, s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	pageHandler, err := handler.NewPageHandler(web.Templates(), authService, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(auth.Authenticate(authService))

	// === Static Files ===
	fileServer := http.FileServer(http.FS(web.Static()))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	s.router.Get("/healthz", healthHandler.HandleHealth)

	// === Page Routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(auth.Gate(auth.DefaultPathPolicy(), authService))
		r.Get("/", pageHandler.HandleHome)
		r.Get("/login", pageHandler.HandleLogin)
		r.Get("/register", pageHandler.HandleRegister)
	})

	// === API Routes ===
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Get("/logout", authHandler.HandleLogout)
			r.Get("/me", authHandler.HandleMe)
		})

		r.Get("/", todoHandler.HandleGet)
		r.Post("/", todoHandler.HandleCreate)
		r.Put("/", todoHandler.HandleUpdate)
		r.Delete("/", todoHandler.HandleDelete)
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the store
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
