// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware, and
// routes, and decides how the server starts and stops.
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go:  config → logger → repository.Store
//	New():    Store → records.Manager → services → handlers → routes
//
// This is the "composition root" pattern: all dependencies are wired in one
// place, rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/fresh-start/internal/app"
	"github.com/sakif/fresh-start/internal/auth"
	"github.com/sakif/fresh-start/internal/config"
	"github.com/sakif/fresh-start/internal/handler"
	"github.com/sakif/fresh-start/internal/middleware"
	"github.com/sakif/fresh-start/internal/records"
	"github.com/sakif/fresh-start/internal/repository"
	"github.com/sakif/fresh-start/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store. Start closes it after the HTTP server has shut
// down, so in-flight writes finish first.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store
}

// New wires every layer over store. The store is closed by Start, or by the
// caller if New fails.
func New(cfg *config.Config, logger *slog.Logger, store repository.Store) (*Server, error) {
	if err := cfg.RequireTokenSecret(); err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenService(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	rm := app.NewRecords(store, cfg.Storage, logger)

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}
	s.setupRoutes(rm, tokens, auth.NewPINService(cfg.Auth.BcryptCost))

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
//	GET    /healthz                 → liveness
//	GET    /api/profiles            → list profiles
//	POST   /api/profiles            → create profile
//	GET    /api/session             → current profile (if any)
//	POST   /api/session             → select profile, issue token
//	DELETE /api/session             → deselect
//
//	reads (no profile selected → defaults):
//	GET    /api/smoking, /api/today, /api/target, /api/settings,
//	       /api/triggers, /api/triggers/summary, /api/feedback,
//	       /api/activity, /api/dashboard, /api/data/summary, /api/data/export
//
//	writes (profile required):
//	PUT    /api/smoking/{date}, /api/today, /api/target, /api/settings
//	PATCH  /api/today
//	POST   /api/triggers, /api/feedback
//	DELETE /api/data
//
//	admin (first profile only):
//	GET    /api/admin/users, /api/admin/export
//	DELETE /api/admin/data
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs first so the logger can print it; Recoverer sits inside the
// logger so a panic still produces a logged 500.
func (s *Server) setupRoutes(rm *records.Manager, tokens *auth.TokenService, pins *auth.PINService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	profileService := service.NewProfileService(rm, pins, s.logger)
	trackerService := service.NewTrackerService(rm, s.logger)
	triggerService := service.NewTriggerService(rm, s.logger)
	feedbackService := service.NewFeedbackService(rm, s.logger)
	exportService := service.NewExportService(rm, s.logger)

	profiles := handler.NewProfileHandler(profileService, tokens, s.logger)
	tracker := handler.NewTrackerHandler(trackerService, s.logger)
	triggers := handler.NewTriggerHandler(triggerService, s.logger)
	feedback := handler.NewFeedbackHandler(feedbackService, s.logger)
	data := handler.NewDataHandler(exportService, s.logger)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/profiles", profiles.HandleList)
		r.Post("/profiles", profiles.HandleCreate)
		r.Post("/session", profiles.HandleStart)
		r.Delete("/session", profiles.HandleEnd)

		// Reads: a missing or invalid token just means "no profile".
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))

			r.Get("/session", profiles.HandleCurrent)
			r.Get("/smoking", tracker.HandleListSmoking)
			r.Get("/today", tracker.HandleToday)
			r.Get("/target", tracker.HandleGetTarget)
			r.Get("/settings", tracker.HandleGetSettings)
			r.Get("/dashboard", tracker.HandleDashboard)
			r.Get("/triggers", triggers.HandleList)
			r.Get("/triggers/summary", triggers.HandleSummary)
			r.Get("/feedback", feedback.HandleList)
			r.Get("/activity", data.HandleActivity)
			r.Get("/data/summary", data.HandleSummary)
			r.Get("/data/export", data.HandleExport)
		})

		// Writes need a selected profile.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Put("/smoking/{date}", tracker.HandleRecordDay)
			r.Put("/today", tracker.HandleSetToday)
			r.Patch("/today", tracker.HandleAdjustToday)
			r.Put("/target", tracker.HandleSetTarget)
			r.Put("/settings", tracker.HandleUpdateSettings)
			r.Post("/triggers", triggers.HandleLog)
			r.Post("/feedback", feedback.HandleSubmit)
			r.Delete("/data", data.HandleClear)

			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireAdmin(profileService.IsAdmin))

				r.Get("/users", data.HandleAdminOverview)
				r.Get("/export", data.HandleAdminExport)
				r.Delete("/data", data.HandleAdminClear)
			})
		})
	})
}

// Start runs the HTTP server until ctx is cancelled or SIGINT/SIGTERM
// arrives, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (server.shutdown_timeout)
//  3. Close the store (flushes the SQLite WAL, releases the file lock)
func (s *Server) Start(ctx context.Context) error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	sc := s.config.Server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", sc.Host, sc.Port),
		Handler:      s.router,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		IdleTimeout:  sc.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("storage", s.config.Storage.Driver),
			slog.String("prefix", s.config.Storage.Prefix),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
