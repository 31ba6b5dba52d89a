package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-portfolio-ledger/internal/entity"
	"golang-portfolio-ledger/internal/ledger/config"
	delivery "golang-portfolio-ledger/internal/ledger/delivery/http"
	_ "golang-portfolio-ledger/internal/ledger/docs"
	"golang-portfolio-ledger/internal/ledger/repository"
	"golang-portfolio-ledger/internal/ledger/service"
	"golang-portfolio-ledger/pkg/logger"
	"golang-portfolio-ledger/pkg/postgres"
	"golang-portfolio-ledger/pkg/ratelimit"
	"golang-portfolio-ledger/pkg/redis"
	"golang-portfolio-ledger/pkg/telegram"
	"golang-portfolio-ledger/pkg/tracing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the portfolio ledger service",
	Run:   runServe,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verifies the ledger hash chain once and exits non-zero when it is broken",
	Run:   runVerify,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, appLogger := mustLoad()
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Portfolio Ledger Service", logger.Field("name", cfg.App.Name))

	shutdownTracing, err := tracing.Init(tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		PrettyPrint:    cfg.Tracing.PrettyPrint,
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize tracing", logger.ErrorField(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			appLogger.Error("Failed to shutdown tracing", logger.ErrorField(err))
		}
	}()

	db := mustOpenDatabase(cfg, appLogger)
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	notifier, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
	}

	// Initialize repositories
	store := repository.NewStore(db.DB)
	priceRepo := repository.NewRedisPriceRepository(redisClient.Client, cfg.Ledger.PriceCacheTTL)
	eventRepo := repository.NewRedisLedgerEventRepository(redisClient.Client, cfg.Redis.StreamMaxLen)

	// Initialize services
	auditSvc := service.NewAuditService(store, appLogger)
	portfolioSvc := service.NewPortfolioService(store, auditSvc, priceRepo, eventRepo, appLogger)
	integritySvc := service.NewIntegrityService(store, auditSvc, appLogger)

	portfolio, err := portfolioSvc.Bootstrap(ctx, cfg.Ledger.PortfolioName)
	if err != nil {
		appLogger.Fatal("Failed to bootstrap portfolio", logger.ErrorField(err))
	}

	if cfg.Ledger.IntegritySchedule != "" {
		monitor := service.NewIntegrityMonitor(integritySvc, notifier, appLogger, portfolio.ID, cfg.Ledger.IntegritySchedule)
		if err := monitor.Start(ctx); err != nil {
			appLogger.Fatal("Failed to start integrity monitor", logger.ErrorField(err))
		}
	}

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	apiV1 := e.Group("/api/v1")
	portfolioGroup := apiV1.Group("/portfolio")

	limiter := ratelimit.NewRequestLimiter(cfg.Ledger.MutationRatePerMinute)
	delivery.NewHoldingHandler(portfolioSvc, portfolio.ID, limiter.Middleware(), appLogger).RegisterRoutes(portfolioGroup)
	delivery.NewIntegrityHandler(integritySvc, portfolio.ID, appLogger).RegisterRoutes(portfolioGroup)
	delivery.NewLedgerHandler(auditSvc, portfolio.ID, cfg.Ledger.LedgerPageSize, appLogger).RegisterRoutes(portfolioGroup)

	e.GET("/swagger/*", swagger.WrapHandler)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

func runVerify(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, appLogger := mustLoad()
	defer func() { _ = appLogger.Sync() }()

	db := mustOpenDatabase(cfg, appLogger)
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	store := repository.NewStore(db.DB)
	portfolio, err := store.Portfolios().FindByName(ctx, cfg.Ledger.PortfolioName)
	if err != nil {
		appLogger.Fatal("Failed to find portfolio", logger.ErrorField(err))
	}
	if portfolio == nil {
		appLogger.Fatal("Portfolio does not exist", logger.StringField("name", cfg.Ledger.PortfolioName))
	}

	auditSvc := service.NewAuditService(store, appLogger)
	integritySvc := service.NewIntegrityService(store, auditSvc, appLogger)

	result, err := integritySvc.CheckIntegrity(ctx, portfolio.ID)
	if err != nil {
		appLogger.Fatal("Integrity check failed to run", logger.ErrorField(err))
	}

	fmt.Printf("status=%s entries_checked=%d", result.Status, result.EntriesChecked)
	if result.FirstBadSequence != nil {
		fmt.Printf(" first_bad_sequence=%d reason=%q", *result.FirstBadSequence, result.Reason)
	}
	fmt.Println()

	if result.Status != string(entity.IntegrityStatusOK) {
		_ = appLogger.Sync()
		os.Exit(1)
	}
}

func mustLoad() (*config.Config, *logger.Logger) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return cfg, appLogger
}

func mustOpenDatabase(cfg *config.Config, appLogger *logger.Logger) *postgres.DB {
	db, err := postgres.NewDB(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	return db
}

// @title Portfolio Ledger API
// @version 1.0
// @description Holdings of a portfolio recorded in a tamper-evident, hash-chained audit ledger.
// @contact.name API Support
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "ledger-service"}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-ledger.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd, verifyCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing ledger-service CLI: %s\n", err)
		os.Exit(1)
	}
}
