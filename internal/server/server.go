// Package server provides the HTTP server implementation for the AuthGate
// service. It handles routing, middleware configuration, and server lifecycle
// management.
//
// The server package follows a structured initialization approach with
// dependency injection and proper lifecycle management. Initialization runs
// database → cache → auth providers → repositories → services → handlers →
// routes, with graceful shutdown and periodic maintenance of expired token
// records.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/cache"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/constants"
	"github.com/authgate/authgate/internal/database"
	"github.com/authgate/authgate/internal/email"
	"github.com/authgate/authgate/internal/handlers"
	"github.com/authgate/authgate/internal/repository"
	"github.com/authgate/authgate/internal/service"
	"github.com/authgate/authgate/migrations"
)

// Handlers contains all HTTP handlers for the application.
// It centralizes handler management for consistent request processing
// and simplifies dependency injection throughout the application.
type Handlers struct {
	// AuthHandler manages authentication and token lifecycle endpoints
	AuthHandler *handlers.AuthHandler

	// UserHandler manages user profile endpoints
	UserHandler *handlers.UserHandler

	// HealthHandler reports service health including dependency status
	HealthHandler *handlers.HealthHandler
}

// AuthProviders contains all authentication providers for the application.
// This structure encapsulates authentication-related dependencies
// to simplify initialization and testing.
type AuthProviders struct {
	// JWTService handles JWT token generation and validation
	JWTService *auth.JWTService

	// PasswordCfg contains password hashing and validation configuration
	PasswordCfg *auth.PasswordConfig
}

// repositories holds the data access layer for the server.
type repositories struct {
	userRepo    repository.UserRepository
	refreshRepo repository.RefreshTokenRepository
	revokedRepo repository.RevokedTokenRepository
	resetRepo   repository.PasswordResetRepository
}

// services holds the business logic layer for the server.
type services struct {
	authService       *service.AuthService
	revocationService *service.TokenRevocationService
}

// Server represents the AuthGate API server.
// It encapsulates all server components and handles server lifecycle
// management, including initialization, startup, and graceful shutdown.
type Server struct {
	// Config contains application configuration
	Config *config.AppConfig

	// Db provides database access
	Db *database.Pool

	// Cache is the Redis client backing the revocation cache.
	// It is nil when Redis is unavailable and the server is running
	// in database-only revocation mode.
	Cache *cache.Client

	// router handles HTTP routing
	router chi.Router

	// Handlers contains all HTTP request handlers
	Handlers *Handlers

	// authProviders contains authentication services
	authProviders *AuthProviders

	// repos contains the data access layer
	repos *repositories

	// svcs contains the business logic layer
	svcs *services

	// httpServer is the underlying HTTP server
	httpServer *http.Server
}

// NewServer creates a new server instance with all required components.
// It initializes the database, revocation cache, authentication providers,
// repositories, services, and handlers, then sets up the HTTP routes.
//
// Parameters:
//   - cfg: Application configuration including database, server, and auth settings
//
// Returns:
//   - A fully initialized Server instance ready to start
//   - An error if initialization of any component fails
//
// A Redis connection failure is not fatal: revocation checks degrade to
// database-only mode, which stays correct because the tombstone table is
// the source of truth.
func NewServer(cfg *config.AppConfig) (*Server, error) {
	// Create server instance
	s := &Server{
		Config: cfg,
	}

	// Initialize components
	if err := s.setupDatabase(); err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	revCache := s.setupCache()

	if err := s.setupAuthProviders(); err != nil {
		return nil, fmt.Errorf("failed to set up auth providers: %w", err)
	}

	s.setupRepositories()

	if err := s.setupServices(revCache); err != nil {
		return nil, fmt.Errorf("failed to set up services: %w", err)
	}

	if err := s.setupHandlers(); err != nil {
		return nil, fmt.Errorf("failed to set up handlers: %w", err)
	}

	// Set up routes
	s.SetupRoutes()

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         cfg.Server.ServerAddress(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  constants.DefaultIdleTimeout,
	}

	return s, nil
}

// setupDatabase initializes the database connection and runs migrations.
// It ensures the database schema is up-to-date before the server accepts
// any traffic.
//
// Returns:
//   - An error if database connection or migration fails
func (s *Server) setupDatabase() error {
	// Connect to the database
	db, err := database.Connect(s.Config)
	if err != nil {
		return err
	}

	s.Db = db

	// Run migrations to create tables if they don't exist
	migrator := migrations.NewMigrator(db)
	if err := migrator.RunMigrations(context.Background()); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	return nil
}

// setupCache connects to Redis and returns the revocation cache backed by it.
// When the connection fails the server logs a warning and returns a no-op
// cache so that every revocation check goes straight to the database.
//
// Returns:
//   - The revocation cache to wire into the revocation service
func (s *Server) setupCache() cache.RevocationCache {
	client, err := cache.Connect(s.Config)
	if err != nil {
		log.Warn().
			Err(err).
			Str("addr", s.Config.Redis.Addr).
			Msg("Redis unavailable, revocation checks will run in database-only mode")
		return cache.NewNoopRevocationCache()
	}

	s.Cache = client
	return cache.NewRevocationCache(client)
}

// setupAuthProviders initializes authentication providers.
// It creates services for JWT token management and password handling.
//
// Returns:
//   - An error if auth provider initialization fails
func (s *Server) setupAuthProviders() error {
	// Create JWT service
	jwtService := auth.NewJWTService(&s.Config.JWT)

	// Create password config
	passwordCfg := auth.ConfigFromAppConfig(s.Config)

	// Store providers
	s.authProviders = &AuthProviders{
		JWTService:  jwtService,
		PasswordCfg: passwordCfg,
	}

	return nil
}

// setupRepositories initializes all data repositories.
// Repositories provide a data access layer that abstracts database
// operations for each domain entity.
func (s *Server) setupRepositories() {
	s.repos = &repositories{
		userRepo:    repository.NewUserRepository(s.Db),
		refreshRepo: repository.NewRefreshTokenRepository(s.Db),
		revokedRepo: repository.NewRevokedTokenRepository(s.Db),
		resetRepo:   repository.NewPasswordResetRepository(s.Db),
	}
}

// setupServices initializes all business services.
// It creates service instances using the previously initialized
// repositories and the revocation cache.
//
// Parameters:
//   - revCache: The revocation cache, real or no-op
//
// Returns:
//   - An error if required dependencies are missing
func (s *Server) setupServices(revCache cache.RevocationCache) error {
	if s.authProviders == nil || s.authProviders.JWTService == nil {
		return fmt.Errorf("JWT service not initialized")
	}
	if s.authProviders.PasswordCfg == nil {
		return fmt.Errorf("password config not initialized")
	}
	if s.repos == nil {
		return fmt.Errorf("repositories not initialized")
	}

	revocationService := service.NewTokenRevocationService(s.repos.revokedRepo, revCache)

	authService := service.NewAuthService(
		s.repos.userRepo,
		s.repos.refreshRepo,
		s.repos.resetRepo,
		revocationService,
		s.authProviders.JWTService,
		s.authProviders.PasswordCfg,
		email.NewSender(&s.Config.Email),
		&s.Config.Email,
	)

	s.svcs = &services{
		authService:       authService,
		revocationService: revocationService,
	}

	return nil
}

// setupHandlers initializes all HTTP request handlers.
// It creates handler instances using the previously initialized services.
//
// Returns:
//   - An error if handler initialization fails or required services are missing
func (s *Server) setupHandlers() error {
	if s.svcs == nil || s.svcs.authService == nil {
		return fmt.Errorf("services not initialized")
	}

	s.Handlers = &Handlers{
		AuthHandler:   handlers.NewAuthHandler(s.svcs.authService, s.authProviders.JWTService),
		UserHandler:   handlers.NewUserHandler(s.svcs.authService),
		HealthHandler: handlers.NewHealthHandler(s.Db, s.Cache),
	}

	return nil
}

// Start starts the HTTP server and sets up signal handling for graceful shutdown.
// It runs in a blocking mode, waiting for either server errors or shutdown signals.
//
// Returns:
//   - An error if the server fails to start or encounters an error during operation
//
// This method performs the following operations:
// 1. Starts the HTTP server in a separate goroutine
// 2. Sets up signal handling for graceful shutdown (SIGINT, SIGTERM)
// 3. Initializes periodic maintenance tasks
// 4. Blocks until an error occurs or a shutdown signal is received
// 5. Performs graceful shutdown when requested
func (s *Server) Start() error {
	// Create a channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start the server in a separate goroutine
	go func() {
		log.Info().
			Str("address", s.Config.Server.ServerAddress()).
			Msg("Starting server")

		serverErrors <- s.httpServer.ListenAndServe()
	}()

	// Create a channel to listen for OS signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Set up maintenance tasks
	s.SetupMaintenanceTasks()

	// Block until an OS signal or an error is received
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info().
			Str("signal", sig.String()).
			Msg("Shutdown signal received")

		// Create a context with a timeout for graceful shutdown
		ctx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
		defer cancel()

		// Shutdown the server
		if err := s.Shutdown(ctx); err != nil {
			// Shutdown the server immediately if graceful shutdown fails
			if closeErr := s.httpServer.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the server, closing all connections properly.
// It ensures in-flight requests are completed before shutting down.
//
// Parameters:
//   - ctx: Context with timeout for the shutdown operation
//
// Returns:
//   - An error if shutdown fails within the context timeout
//
// This method performs the following cleanup operations:
// 1. Gracefully shuts down the HTTP server, waiting for in-flight requests
// 2. Closes the database connection
// 3. Closes the Redis connection if one was established
func (s *Server) Shutdown(ctx context.Context) error {
	// Shutdown the HTTP server
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	log.Info().Msg("Server stopped gracefully")

	// Close the database connection
	s.Db.Close()
	log.Info().Msg("Database connection closed")

	// Close the Redis connection
	if s.Cache != nil {
		s.Cache.Close()
		log.Info().Msg("Redis connection closed")
	}

	return nil
}

// SetupMaintenanceTasks sets up periodic maintenance tasks for the server.
// It creates a background goroutine to perform cleanup operations at regular
// intervals.
//
// The maintenance sweep removes:
// 1. Expired refresh tokens, which can no longer be redeemed
// 2. Revocation tombstones for tokens past their natural expiry
// 3. Expired password reset tokens
//
// The tasks run on a fixed schedule defined by constants.DBMaintenanceInterval.
// The sweep has its own timeout to prevent a long-running cleanup from
// blocking the next one.
func (s *Server) SetupMaintenanceTasks() {
	// Set up a ticker for maintenance tasks
	ticker := time.NewTicker(constants.DBMaintenanceInterval)
	go func() {
		for range ticker.C {
			// Create a context with a timeout
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)

			// Cleanup expired refresh tokens
			if count, err := s.repos.refreshRepo.DeleteExpired(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to cleanup expired refresh tokens")
			} else if count > 0 {
				log.Info().Int64("count", count).Msg("Cleaned up expired refresh tokens")
			}

			// Cleanup tombstones for tokens past their natural expiry
			if count, err := s.repos.revokedRepo.DeleteExpired(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to cleanup expired revocation tombstones")
			} else if count > 0 {
				log.Info().Int64("count", count).Msg("Cleaned up expired revocation tombstones")
			}

			// Cleanup expired password reset tokens
			if count, err := s.repos.resetRepo.DeleteExpired(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to cleanup expired password reset tokens")
			} else if count > 0 {
				log.Info().Int64("count", count).Msg("Cleaned up expired password reset tokens")
			}

			// Call cancel at the end of each iteration to avoid resource leak
			cancel()
		}
	}()
}
