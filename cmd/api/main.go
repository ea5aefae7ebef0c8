package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/joho/godotenv"

	"github.com/dentalis/clinic-platform/cmd/mainconfig"
	"github.com/dentalis/clinic-platform/internal/api/router"
	"github.com/dentalis/clinic-platform/internal/app/bootstrap"
	"github.com/dentalis/clinic-platform/internal/catalog"
	"github.com/dentalis/clinic-platform/internal/clinic"
	appconfig "github.com/dentalis/clinic-platform/internal/config"
	"github.com/dentalis/clinic-platform/internal/notify"
	"github.com/dentalis/clinic-platform/internal/patients"
	"github.com/dentalis/clinic-platform/internal/scheduling"
	"github.com/dentalis/clinic-platform/internal/verify"
	"github.com/dentalis/clinic-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hours, err := clinic.NewHours(cfg.ClinicTimezone, cfg.ClinicOpen, cfg.ClinicClose)
	if err != nil {
		logger.Error("invalid clinic hours configuration", "error", err)
		os.Exit(1)
	}

	pool := bootstrap.BuildPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool == nil {
		logger.Error("postgres is required", "url_set", cfg.DatabaseURL != "")
		os.Exit(1)
	}
	defer pool.Close()

	metricsHandler, schedMetrics := bootstrap.BuildMetrics()

	// Email provider
	var sesClient *sesv2.Client
	if cfg.EmailProvider == "ses" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		sesClient = sesv2.NewFromConfig(awsCfg)
	}
	emailSender := bootstrap.BuildEmailSender(cfg, sesClient, logger)

	// Stores and services
	catalogStore := catalog.NewStore(pool)
	patientStore := patients.NewStore(pool)
	apptStore := scheduling.NewStore(pool)

	notifier := notify.NewService(emailSender, patientStore, catalogStore, hours, logger)
	schedService := scheduling.NewService(apptStore, catalogStore, hours, notifier, schedMetrics, logger)
	calculator := scheduling.NewCalculator(apptStore, catalogStore, hours, schedMetrics)

	sweeper := scheduling.NewSweeper(apptStore, cfg.ExpiryGrace, cfg.SweepInterval, schedMetrics, logger)
	go sweeper.Start(ctx)

	// Registration flow (optional, needs redis)
	var verifyHandler *verify.Handler
	if redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true); redisClient != nil {
		defer redisClient.Close()
		codes := verify.NewCodeStore(redisClient, cfg.VerifyCodeTTL)
		verifySvc := verify.NewService(codes, patientStore, emailSender, cfg.PatientJWTSecret, logger)
		verifyHandler = verify.NewHandler(verifySvc, logger)
	} else {
		logger.Warn("redis unavailable, registration endpoints disabled")
	}

	r := router.New(&router.Config{
		Logger:              logger,
		AppointmentsHandler: scheduling.NewHandler(schedService, calculator, hours, logger),
		CatalogHandler:      catalog.NewHandler(catalogStore, logger),
		VerifyHandler:       verifyHandler,
		HealthHandler:       bootstrap.BuildHealthHandler(pool),
		MetricsHandler:      metricsHandler,
		PatientJWTSecret:    cfg.PatientJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
