// internal/api/server.go

// Package api exposes the scraping service over HTTP: batch scrape triggers,
// marketplace and product administration, CSV export, and regression.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pricewatch/pricewatch/internal/metrics"
	"github.com/pricewatch/pricewatch/pkg/models"
)

// Store is the persistence surface the API needs.
type Store interface {
	CreateMarketplace(ctx context.Context, mp *models.Marketplace) (*models.Marketplace, error)
	MarketplaceByID(ctx context.Context, id int64) (*models.Marketplace, error)
	ListMarketplaces(ctx context.Context) ([]models.Marketplace, error)
	UpdateMarketplace(ctx context.Context, mp *models.Marketplace) (*models.Marketplace, error)
	DeleteMarketplace(ctx context.Context, id int64) (bool, error)

	CreateProduct(ctx context.Context, p *models.Product) (int64, error)
	ProductByID(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)

	ListOutcomes(ctx context.Context) ([]models.Outcome, error)
}

// BatchRunner triggers one orchestrated scrape batch.
type BatchRunner interface {
	Run(ctx context.Context, query string, marketplaceIDs []int64) (*models.BatchResult, error)
}

// Server wires handlers, middleware, and routes.
type Server struct {
	store   Store
	runner  BatchRunner
	metrics *metrics.Metrics
	logger  zerolog.Logger
	router  *mux.Router
}

// NewServer builds the HTTP server surface.
func NewServer(store Store, runner BatchRunner, m *metrics.Metrics, logger zerolog.Logger) *Server {
	s := &Server{
		store:   store,
		runner:  runner,
		metrics: m,
		logger:  logger,
		router:  mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.requestLogger)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	r.HandleFunc("/scrape", s.handleScrape).Methods(http.MethodPost)
	r.HandleFunc("/scrape/product/{id:[0-9]+}", s.handleScrapeProduct).Methods(http.MethodPost)

	r.HandleFunc("/marketplaces", s.handleListMarketplaces).Methods(http.MethodGet)
	r.HandleFunc("/marketplaces", s.handleCreateMarketplace).Methods(http.MethodPost)
	r.HandleFunc("/marketplaces/{id:[0-9]+}", s.handleGetMarketplace).Methods(http.MethodGet)
	r.HandleFunc("/marketplaces/{id:[0-9]+}", s.handleUpdateMarketplace).Methods(http.MethodPut)
	r.HandleFunc("/marketplaces/{id:[0-9]+}", s.handleDeleteMarketplace).Methods(http.MethodDelete)

	r.HandleFunc("/products", s.handleListProducts).Methods(http.MethodGet)
	r.HandleFunc("/products", s.handleCreateProduct).Methods(http.MethodPost)

	r.HandleFunc("/export/csv", s.handleExportCSV).Methods(http.MethodGet)
	r.HandleFunc("/regression", s.handleRegression).Methods(http.MethodPost)
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the API until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // scrape batches can be slow
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
