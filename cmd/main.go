package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	_ "lora-lending/docs"
	"lora-lending/internal/api"
	"lora-lending/internal/api/middleware"
	"lora-lending/internal/batch"
	"lora-lending/internal/config"
	"lora-lending/internal/domain/lender"
	"lora-lending/internal/domain/loan"
	"lora-lending/internal/domain/wallet"
	"lora-lending/internal/event"
	"lora-lending/internal/infrastructure/cache"
	"lora-lending/internal/infrastructure/database/postgres"
	"lora-lending/internal/infrastructure/logging"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// @title LoRa Lending API
// @version 1.0
// @description Loan quotes, applications, billing and wallet for borrowers comparing lenders.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()

	dbPool := initializeDatabase(cfg, logger)
	defer closeDatabase(dbPool, logger)
	runMigrations(cfg, logger)

	rabbitMQConn := setupRabbitMQ(cfg, logger)
	redisClient := initializeRedisClient(cfg, logger)
	rateLimiter := middleware.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger)
	defer rateLimiter.Close()

	svcs := initializeServices(dbPool, redisClient, rabbitMQConn, cfg, logger)
	refreshJob := batch.NewCatalogRefreshJob(svcs.Lenders, logger)
	warmCatalog(refreshJob, logger)

	cronScheduler := startBatchJobs(cfg, logger, refreshJob)
	router := api.SetupRouter(svcs, rateLimiter, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, rabbitMQConn, redisClient, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

func initializeDatabase(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	logger.Info("Initializing database connection pool...")
	dbPool, err := postgres.NewConnectionPool(context.Background(), cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	return dbPool
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}

func runMigrations(cfg *config.Config, logger *slog.Logger) {
	if !cfg.Database.Migrate {
		logger.Info("Schema migrations disabled, skipping.")
		return
	}
	if err := postgres.RunMigrations(cfg.Database.URL, logger); err != nil {
		logger.Error("Failed to apply schema migrations", "error", err)
		os.Exit(1)
	}
}

func initializeServices(dbPool *pgxpool.Pool, redisClient *redis.Client, rabbitConn *amqp.Connection, cfg *config.Config, logger *slog.Logger) api.Services {
	logger.Info("Initializing application components...")
	lenderRepo := postgres.NewLenderRepository(dbPool, logger)
	loanRepo := postgres.NewLoanRepository(dbPool, logger)
	walletRepo := postgres.NewWalletRepository(dbPool, logger)

	var lenderCache lender.Cache
	if redisClient != nil {
		lenderCache = cache.NewLenderCache(redisClient, cfg.Redis.CatalogTTL, logger)
	}
	lenderService := lender.NewLenderService(lenderRepo, lenderCache, logger)

	return api.Services{
		Lenders: lenderService,
		Loans:   loan.NewLoanService(loanRepo, walletRepo, lenderService, newEventPublisher(rabbitConn, cfg, logger), logger),
		Wallets: wallet.NewWalletService(walletRepo, logger),
	}
}

func newEventPublisher(rabbitConn *amqp.Connection, cfg *config.Config, logger *slog.Logger) event.EventPublisher {
	if rabbitConn == nil {
		logger.Info("RabbitMQ not connected, loan events will be dropped.")
		return event.NoopPublisher{Logger: logger}
	}
	publisher, err := event.NewRabbitMQEventPublisher(rabbitConn, cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		logger.Error("Failed to create RabbitMQ event publisher, loan events will be dropped", "error", err)
		return event.NoopPublisher{Logger: logger}
	}
	return publisher
}

func warmCatalog(job *batch.CatalogRefreshJob, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), batch.DefaultCatalogRefreshTimeout)
	defer cancel()
	if err := job.Run(ctx); err != nil {
		logger.Warn("Initial lender catalog refresh failed", "error", err)
	}
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "port", cfg.Server.Port)
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, rabbitConn *amqp.Connection, redisClient *redis.Client,
	shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	triggerReason, ok := waitForShutdownTrigger(shutdownChan, serverErrors, logger)

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	stopCronScheduler(cronScheduler, logger)
	shutdownHTTPServer(srv, serverErrors, logger)
	closeRabbitMQConnection(rabbitConn, logger)
	closeRedisClient(redisClient, logger)

	logger.Info("Application shutdown process complete.")
	if !ok {
		os.Exit(1)
	}
}

// waitForShutdownTrigger reports false when the server died on its own.
func waitForShutdownTrigger(shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) (string, bool) {
	select {
	case sig := <-shutdownChan:
		logger.Info("Shutdown signal received.", "signal", sig.String())
		return "signal: " + sig.String(), true
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			return "server error", false
		}
		logger.Info("Server goroutine finished before signal.")
		return "server exited", true
	}
}

func stopCronScheduler(cronScheduler *cron.Cron, logger *slog.Logger) {
	if cronScheduler == nil {
		return
	}
	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}
}

func shutdownHTTPServer(srv *http.Server, serverErrors <-chan error, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}
}

func initializeRedisClient(cfg *config.Config, logger *slog.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		logger.Info("Redis disabled, lender catalog will be read from Postgres.")
		return nil
	}
	rdb, err := cache.NewRedisClient(context.Background(), cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis unavailable, continuing without catalog cache", "error", err)
		return nil
	}
	return rdb
}

func closeRedisClient(redisClient *redis.Client, logger *slog.Logger) {
	if redisClient == nil {
		logger.Info("Redis client was not initialized, skipping close.")
		return
	}
	logger.Info("Closing Redis client connection...")
	if err := redisClient.Close(); err != nil {
		logger.Error("Failed to close Redis client connection gracefully", "error", err)
	} else {
		logger.Info("Redis client connection closed.")
	}
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, refreshJob *batch.CatalogRefreshJob) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleExpr := cfg.Batch.CatalogRefreshSchedule
	if scheduleExpr == "" {
		scheduleExpr = batch.DefaultCatalogRefreshSchedule
		logger.Warn("Catalog refresh schedule not configured, using default", "schedule", scheduleExpr)
	}
	jobTimeout := cfg.Batch.CatalogRefreshTimeout
	if jobTimeout <= 0 {
		jobTimeout = batch.DefaultCatalogRefreshTimeout
	}

	jobID, err := batch.Schedule(c, scheduleExpr, jobTimeout, refreshJob, logger)
	if err != nil {
		logger.Error("Failed to schedule catalog refresh job", "schedule", scheduleExpr, slog.Any("error", err))
	} else {
		logger.Info("Scheduled catalog refresh job", "schedule", scheduleExpr, "job_id", jobID)
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}

func connectRabbitMQ(uri string, attempts int, backoff time.Duration, logger *slog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	for i := 1; i <= attempts; i++ {
		conn, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ")

			go func() {
				blockChan := conn.NotifyBlocked(make(chan amqp.Blocking))
				closeChan := conn.NotifyClose(make(chan *amqp.Error))

				select {
				case b := <-blockChan:
					logger.Warn("RabbitMQ Connection Blocked", "reason", b.Reason)
				case e := <-closeChan:
					if e != nil {
						logger.Error("RabbitMQ Connection Closed", slog.Any("error", e))
					}
				}
			}()

			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ, retrying...",
			slog.Int("attempt", i),
			slog.Int("max_attempts", attempts),
			slog.Any("error", err),
		)
		if i < attempts {
			time.Sleep(time.Duration(i) * backoff)
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, err)
}

// setupRabbitMQ returns nil when messaging is disabled or unreachable; loan
// events are then dropped.
func setupRabbitMQ(cfg *config.Config, logger *slog.Logger) *amqp.Connection {
	if !cfg.RabbitMQ.Enabled {
		logger.Info("RabbitMQ disabled, skipping connection.")
		return nil
	}
	if cfg.RabbitMQ.URL == "" {
		logger.Warn("RabbitMQ enabled but URL is not configured.")
		return nil
	}
	conn, err := connectRabbitMQ(cfg.RabbitMQ.URL, 5, 2*time.Second, logger)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", "error", err)
		return nil
	}
	return conn
}

func closeRabbitMQConnection(rabbitConn *amqp.Connection, logger *slog.Logger) {
	if rabbitConn == nil {
		logger.Info("RabbitMQ connection was not established, skipping close.")
		return
	}
	if rabbitConn.IsClosed() {
		logger.Info("RabbitMQ connection already closed, skipping close.")
		return
	}
	logger.Info("Closing RabbitMQ connection...")
	if err := rabbitConn.Close(); err != nil {
		logger.Error("Failed to close RabbitMQ connection gracefully", slog.Any("error", err))
	} else {
		logger.Info("RabbitMQ connection closed.")
	}
}
