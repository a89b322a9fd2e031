// Package server is the composition root of the HTTP API: it builds the
// stores, the handlers and the router, and runs the HTTP server.
//
// DEPENDENCY FLOW:
//
//	repository.Store → IdentityService → TaskService → ReportService
//	                 ↘ handlers (auth, task, notification, report) → chi router
//
// Everything is wired in New; nothing else in the program constructs a
// service.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
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

	"github.com/sakif/taskboard/internal/auth"
	"github.com/sakif/taskboard/internal/config"
	"github.com/sakif/taskboard/internal/handler"
	"github.com/sakif/taskboard/internal/middleware"
	"github.com/sakif/taskboard/internal/repository"
	"github.com/sakif/taskboard/internal/service"
)

// Server owns the store and closes it on shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store

	Identity *service.IdentityService
	Tasks    *service.TaskService
	Reports  *service.ReportService
}

// New restores the board from store and builds the router.
func New(ctx context.Context, cfg *config.Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	identity := service.NewIdentityService(store, auth.NewPasswordService(), service.IdentityConfig{
		SignInDelay:     cfg.Auth.SignInDelay,
		VerifyPasswords: cfg.Auth.VerifyPasswords,
	}, logger)
	if err := identity.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restoring identity: %w", err)
	}

	tasks := service.NewTaskService(store, identity, logger)
	if err := tasks.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restoring tasks: %w", err)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		// Sessions then last only as long as this process.
		secret = randomSecret()
		logger.Warn("auth.jwt_secret not set; using a random secret, sessions end on restart")
	}
	tokens, err := auth.NewTokenService(secret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("configuring tokens: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		store:    store,
		Identity: identity,
		Tasks:    tasks,
		Reports:  service.NewReportService(tasks, identity),
	}
	s.setupRoutes(tokens)
	return s, nil
}

func randomSecret() string {
	b := make([]byte, 32)
	// crypto/rand.Read never returns an error on supported platforms
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Handler exposes the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes mounts middleware and routes.
//
// MIDDLEWARE ORDER:
//  1. RequestID:  unique ID per request, read by the logger
//  2. RealIP:     client IP from X-Forwarded-For
//  3. Logger:     one line per request
//  4. Recoverer:  a panicking handler answers 500 instead of killing the process
func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	authHandler := handler.NewAuthHandler(s.Identity, tokens, s.logger)
	taskHandler := handler.NewTaskHandler(s.Tasks, s.Identity, s.logger)
	notificationHandler := handler.NewNotificationHandler(s.Tasks, s.Identity, s.logger)
	reportHandler := handler.NewReportHandler(s.Reports, s.Identity, s.logger)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// public
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/register", authHandler.HandleRegister)

		// everything else needs a session cookie
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Post("/auth/logout", authHandler.HandleLogout)
			r.Get("/me", authHandler.HandleMe)
			r.Get("/users", authHandler.HandleUsers)

			r.Get("/tasks", taskHandler.HandleList)
			r.Post("/tasks", taskHandler.HandleCreate)
			r.Get("/tasks/{id}", taskHandler.HandleGet)
			r.Patch("/tasks/{id}", taskHandler.HandleUpdate)
			r.Delete("/tasks/{id}", taskHandler.HandleDelete)
			r.Post("/tasks/{id}/assign", taskHandler.HandleAssign)

			r.Get("/notifications", notificationHandler.HandleList)
			r.Post("/notifications/{id}/read", notificationHandler.HandleMarkRead)
			r.Delete("/notifications/{id}", notificationHandler.HandleDismiss)

			r.Get("/dashboard", reportHandler.HandleDashboard)
			r.Get("/team", reportHandler.HandleTeam)
			r.Get("/calendar", reportHandler.HandleCalendar)
		})
	})
}

// pinger is implemented by stores with a remote server behind them.
type pinger interface {
	Ping(ctx context.Context) error
}

// handleHealth answers 200 when the store is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			s.logger.Error("health check failed", slog.String("error", err.Error()))
			http.Error(w, "store unreachable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Write([]byte("ok"))
}

// Start serves HTTP until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, give in-flight requests 30 seconds, close the
// store.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
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
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("storage", s.config.Storage.Backend),
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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
