// Package server provides the HTTP API for Chikai.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hyperjump/chikai/internal/collections"
	"github.com/hyperjump/chikai/internal/config"
	"github.com/hyperjump/chikai/internal/documents"
	"github.com/hyperjump/chikai/internal/search"
	"go.uber.org/zap"
)

// Server is the HTTP server for the Chikai API.
type Server struct {
	documents   *documents.Service
	engine      *search.Engine
	collections *collections.Manager
	config      *config.ServerConfig
	logger      *zap.Logger
	server      *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	docs *documents.Service,
	engine *search.Engine,
	cols *collections.Manager,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		documents:   docs,
		engine:      engine,
		collections: cols,
		config:      cfg,
		logger:      logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Post("/documents", s.handleAddDocument)
	r.Get("/documents", s.handleListDocuments)
	r.Delete("/documents/{id}", s.handleDeleteDocument)

	r.Post("/search", s.handleSearch)

	r.Get("/collections", s.handleListCollections)
	r.Post("/collections", s.handleCreateCollection)
	r.Get("/collections/{name}/info", s.handleCollectionInfo)
	r.Delete("/collections/{name}", s.handleDeleteCollection)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
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
