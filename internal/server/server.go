package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "modernc.org/sqlite"

	"ctifeed/internal/core"
	"ctifeed/internal/features/intel"
)

type Server struct {
	config     *core.Config
	logger     *slog.Logger
	coreLogger *core.Logger
	db         *sql.DB
	intel      *intel.Feature
	server     *http.Server
}

func New(logger *slog.Logger) *Server {
	config, err := core.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", config.Database.Path)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		os.Exit(1)
	}

	coreLogger := core.NewLogger()
	coreDB := core.NewDatabase(db, coreLogger)

	intelFeature := intel.NewFeature(coreLogger, coreDB, intel.NewConfig(config))

	srv := &Server{
		config:     config,
		logger:     logger,
		coreLogger: coreLogger,
		db:         db,
		intel:      intelFeature,
	}

	srv.setupRoutes()

	return srv
}

func (s *Server) setupRoutes() {
	mux := chi.NewRouter()

	mux.Use(middleware.Recoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.Mount("/intel", s.intel.Handlers().Routes())

	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler: mux,
	}
}

func (s *Server) Start() error {
	ctx := context.Background()
	if err := s.intel.Init(ctx); err != nil {
		s.logger.Error("Failed to initialize intel feature", "error", err)
		return err
	}

	s.logger.Info("Starting server", "host", s.config.Server.Host, "port", s.config.Server.Port)

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if err := s.intel.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown intel feature", "error", err)
	}

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
