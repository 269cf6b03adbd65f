// Package server provides the HTTP API for Osusume.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/preference"
	"github.com/hyperjump/osusume/internal/recommend"
	"github.com/hyperjump/osusume/internal/storage"
)

// Server is the HTTP server for the Osusume API.
type Server struct {
	finder      *recommend.Finder
	predictor   *recommend.Predictor
	recommender *recommend.Recommender
	catalog     storage.Storage
	prefs       preference.Store
	config      *config.Config
	logger      *zap.Logger
	server      *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	finder *recommend.Finder,
	predictor *recommend.Predictor,
	recommender *recommend.Recommender,
	catalog storage.Storage,
	prefs preference.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		finder:      finder,
		predictor:   predictor,
		recommender: recommender,
		catalog:     catalog,
		prefs:       prefs,
		config:      cfg,
		logger:      logger,
	}
}

// routes builds the router with all API endpoints and middleware.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/api/v1/items/{itemID}/similar", s.handleSimilarItems)
	r.Get("/api/v1/users/{userID}/predictions/{itemID}", s.handlePredict)
	r.Get("/api/v1/users/{userID}/recommendations", s.handleRecommend)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
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
