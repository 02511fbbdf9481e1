package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matchpulse/core/internal/config"
	"github.com/matchpulse/core/pkg/database"
	"github.com/matchpulse/core/pkg/handlers/health"
	jobshandler "github.com/matchpulse/core/pkg/handlers/jobs"
	synchandler "github.com/matchpulse/core/pkg/handlers/sync"
	"github.com/matchpulse/core/pkg/logger"
	"github.com/matchpulse/core/pkg/middleware"
	"github.com/matchpulse/core/pkg/provider"
	"github.com/matchpulse/core/pkg/services"
)

// Server represents the admin/observability API server
type Server struct {
	router   *http.ServeMux
	port     string
	logger   *logger.Logger
	dbPool   *pgxpool.Pool
	handlers struct {
		health *health.Handler
		sync   *synchandler.Handler
		jobs   *jobshandler.Handler
	}
}

// New creates a new server instance
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbPool, err := pgxpool.New(context.Background(), cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := testDatabaseConnection(dbPool, log); err != nil {
		dbPool.Close()
		return nil, err
	}

	queries := database.New(dbPool)
	providerClient := provider.NewClient(cfg)

	poller := services.NewMatchPoller(queries, cfg.Sync)
	standings := services.NewStandingsService(queries)
	orchestrator := services.NewOrchestrator(poller, sessionSource{providerClient}, queries, standings)
	registry := services.NewJobRegistry(queries)

	server := &Server{
		router: http.NewServeMux(),
		port:   port,
		logger: log,
		dbPool: dbPool,
	}

	server.handlers.health = health.NewHandler(log)
	server.handlers.sync = synchandler.NewHandler(orchestrator, poller, queries, log)
	server.handlers.jobs = jobshandler.NewHandler(registry, log)

	server.setupRoutes()

	log.Info().
		Str("action", "db_connected").
		Msg("Database connection pool established")

	return server, nil
}

// sessionSource adapts the provider client to the orchestrator's session
// contract.
type sessionSource struct {
	client *provider.Client
}

func (s sessionSource) Acquire(ctx context.Context) (services.FetchSession, error) {
	return s.client.Acquire(ctx)
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", middleware.CORS(s.handlers.health.HealthCheck))

	s.router.HandleFunc("/api/sync/run", middleware.CORS(s.handlers.sync.Run))
	s.router.HandleFunc("/api/sync/stats", middleware.CORS(s.handlers.sync.Stats))
	s.router.HandleFunc("/api/sync/match", middleware.CORS(s.handlers.sync.Match))
	s.router.HandleFunc("/api/sync/standings", middleware.CORS(s.handlers.sync.Standings))

	s.router.HandleFunc("/api/jobs/stats", middleware.CORS(s.handlers.jobs.Stats))
	s.router.HandleFunc("/api/jobs/retryable", middleware.CORS(s.handlers.jobs.Retryable))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().
		Str("action", "server_start").
		Str("port", s.port).
		Msg("Starting admin API server")

	if err := http.ListenAndServe(":"+s.port, s.router); err != nil {
		return fmt.Errorf("server failed to start on port %s: %w", s.port, err)
	}

	return nil
}

// Close gracefully shuts down the server and closes database connections
func (s *Server) Close() {
	if s.dbPool != nil {
		s.dbPool.Close()
		s.logger.Info().Msg("Database connection pool closed")
	}
}

// testDatabaseConnection tests the database connection with retry logic
func testDatabaseConnection(dbPool *pgxpool.Pool, log *logger.Logger) error {
	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := dbPool.Ping(ctx)
		cancel()

		if err == nil {
			return nil
		}

		if i == maxRetries-1 {
			return fmt.Errorf("failed to ping database after %d retries: %w", maxRetries, err)
		}

		log.Warn().
			Err(err).
			Int("attempt", i+1).
			Str("action", "db_ping_retry").
			Msg("Retrying database connection")
		time.Sleep(2 * time.Second)
	}

	return nil
}
