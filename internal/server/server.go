// Package server provides the HTTP API for Noto.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/noto/internal/config"
	"github.com/hyperjump/noto/internal/discover"
	"github.com/hyperjump/noto/internal/indexer"
	"github.com/hyperjump/noto/internal/models"
	"github.com/hyperjump/noto/internal/search"
	"github.com/hyperjump/noto/internal/vector"
)

// Server is the HTTP server for the Noto API.
type Server struct {
	engine     *search.Engine
	builder    *indexer.Builder
	discoverer *discover.Discoverer
	holder     *vector.Holder
	config     *config.Config
	logger     *zap.Logger
	server     *http.Server

	mu        sync.Mutex // guards lastBuild
	lastBuild *models.BuildStats
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	builder *indexer.Builder,
	discoverer *discover.Discoverer,
	holder *vector.Holder,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:     engine,
		builder:    builder,
		discoverer: discoverer,
		holder:     holder,
		config:     cfg,
		logger:     logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/rebuild", s.handleRebuild)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/notebooks", s.handleNotebooks)
	r.Get("/api/v1/notebooks/{notebook}/sections", s.handleSections)
	r.Get("/api/v1/notebooks/{notebook}/sections/{section}/pages", s.handlePages)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Rebuild discovers the snapshot files and runs one build. Used by both the
// rebuild endpoint and the filesystem watcher.
func (s *Server) Rebuild(ctx context.Context) (*models.BuildStats, error) {
	files, err := s.discoverer.Discover(s.config.Backup.Root)
	if err != nil {
		return nil, fmt.Errorf("discover snapshot: %w", err)
	}
	stats, err := s.builder.Build(ctx, files)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.lastBuild = stats
	s.mu.Unlock()
	return stats, nil
}
