// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/figure-tracker/internal/job"
	"github.com/figure-tracker/internal/logging"
	"github.com/figure-tracker/internal/models"
	"github.com/figure-tracker/internal/service"
	"github.com/figure-tracker/internal/types"
	"github.com/gorilla/mux"
)

// Service interfaces for dependency injection and testing

// FigureSyncInterface defines the sync operations exposed over HTTP
type FigureSyncInterface interface {
	SyncOne(ctx context.Context, name string) (*models.Figure, error)
	SyncMany(ctx context.Context, names []string) *types.BatchResult
	SyncManyAsync(names []string) (string, error)
	SyncParty(ctx context.Context, party string) (*types.BatchResult, error)
	SyncAll(ctx context.Context) (*types.BatchResult, error)
	SyncAllAsync() string
}

// StatementSyncInterface defines the statement sync operations
type StatementSyncInterface interface {
	SyncByFigure(ctx context.Context, figureName string) (*types.BatchResult, error)
	SyncManyFigures(ctx context.Context, figureNames []string) *types.BatchResult
}

// BillSyncInterface defines the bill sync operations
type BillSyncInterface interface {
	SyncByProposer(ctx context.Context, proposerName string) (*types.BatchResult, error)
	SyncAllPaged(ctx context.Context) (*types.BatchResult, error)
}

// FigureQueryInterface defines the cached read operations
type FigureQueryInterface interface {
	GetFigure(ctx context.Context, figureID string) (*models.Figure, error)
	ListByParty(ctx context.Context, party string) ([]*models.Figure, error)
	ListPopular(ctx context.Context, limit int) ([]*models.Figure, error)
	Search(ctx context.Context, keyword string) ([]*models.Figure, error)
}

// ActivityQueryInterface defines bill and statement read operations
type ActivityQueryInterface interface {
	FigureBills(ctx context.Context, figureID string) (*service.FigureBills, error)
	FigureStatements(ctx context.Context, figureID string, limit int) (*service.FigureStatements, error)
	GetBill(ctx context.Context, billID string) (*models.Bill, error)
	Stats(ctx context.Context) (*service.TrackerStats, error)
}

// JobTrackerInterface exposes job status lookups
type JobTrackerInterface interface {
	Get(jobID string) *job.Status
	List() []*job.Status
}

// CacheAdminInterface exposes forced cache eviction
type CacheAdminInterface interface {
	InvalidateFigure(ctx context.Context, figureID string) error
	InvalidatePattern(ctx context.Context, pattern string) error
	InvalidateAll(ctx context.Context) error
}

// Server represents the HTTP API server.
type Server struct {
	router        *mux.Router
	httpServer    *http.Server
	figureSync    FigureSyncInterface
	statementSync StatementSyncInterface
	billSync      BillSyncInterface
	figureQuery   FigureQueryInterface
	activityQuery ActivityQueryInterface
	jobs          JobTrackerInterface
	cacheAdmin    CacheAdminInterface
	config        *ServerConfig
	logger        *logging.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RequestsPerSec  int // per-client rate limit
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	figureSync FigureSyncInterface,
	statementSync StatementSyncInterface,
	billSync BillSyncInterface,
	figureQuery FigureQueryInterface,
	activityQuery ActivityQueryInterface,
	jobs JobTrackerInterface,
	cacheAdmin CacheAdminInterface,
) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		figureSync:    figureSync,
		statementSync: statementSync,
		billSync:      billSync,
		figureQuery:   figureQuery,
		activityQuery: activityQuery,
		jobs:          jobs,
		cacheAdmin:    cacheAdmin,
		config:        config,
		logger:        logging.GetLogger().WithField("component", "api_server"),
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RequestsPerSec)

	// Set up middleware (order matters!)
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Figure read endpoints. "popular" must register before the {id} route.
	api.HandleFunc("/figures/popular", s.handleListPopular).Methods("GET")
	api.HandleFunc("/figures/search", s.handleSearch).Methods("GET")
	api.HandleFunc("/figures/party/{party}", s.handleListByParty).Methods("GET")
	api.HandleFunc("/figures/{id}", s.handleGetFigure).Methods("GET")
	api.HandleFunc("/figures/{id}/bills", s.handleFigureBills).Methods("GET")
	api.HandleFunc("/figures/{id}/statements", s.handleFigureStatements).Methods("GET")
	api.HandleFunc("/bills/{billId}", s.handleGetBill).Methods("GET")
	api.HandleFunc("/stats", s.handleStats).Methods("GET")

	// Sync endpoints
	api.HandleFunc("/sync/figures", s.handleSyncAllFigures).Methods("POST")
	api.HandleFunc("/sync/figures/{name}", s.handleSyncFigure).Methods("POST")
	api.HandleFunc("/sync/party/{party}", s.handleSyncParty).Methods("POST")
	api.HandleFunc("/sync/statements", s.handleSyncStatements).Methods("POST")
	api.HandleFunc("/sync/statements/{name}", s.handleSyncStatementsByFigure).Methods("POST")
	api.HandleFunc("/sync/bills", s.handleSyncBills).Methods("POST")
	api.HandleFunc("/sync/bills/{name}", s.handleSyncBillsByProposer).Methods("POST")
	api.HandleFunc("/sync/jobs", s.handleListJobs).Methods("GET")
	api.HandleFunc("/sync/jobs/{jobId}", s.handleGetJob).Methods("GET")

	// Cache administration endpoints
	api.HandleFunc("/cache", s.handleEvictPattern).Methods("DELETE")
	api.HandleFunc("/cache/figures/{id}", s.handleEvictFigure).Methods("DELETE")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "figure-tracker",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Router returns the underlying router, used by tests
func (s *Server) Router() *mux.Router {
	return s.router
}
