// Package bootstrap wires shared runtime dependencies for the binaries.
package bootstrap

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/dentalis/clinic-platform/internal/config"
	"github.com/dentalis/clinic-platform/internal/notify"
	"github.com/dentalis/clinic-platform/internal/observability/metrics"
	"github.com/dentalis/clinic-platform/pkg/logging"
)

// BuildRedisClient returns a configured redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildPostgresPool connects a pgx pool, or returns nil when no URL is set.
func BuildPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres not reachable", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// BuildEmailSender selects the configured email provider: sendgrid, ses or
// the logging stub. The SES client is passed in by the binary since loading
// AWS config is only worthwhile when SES is selected.
func BuildEmailSender(cfg *appconfig.Config, sesClient *sesv2.Client, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			logger.Info("email provider: sendgrid", "from", cfg.SendGridFromEmail)
			return sender
		}
		logger.Warn("sendgrid selected but not configured, falling back to stub")
	case "ses":
		sender := notify.NewSESSender(sesClient, notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
		if sender != nil {
			logger.Info("email provider: ses", "from", cfg.SESFromEmail)
			return sender
		}
		logger.Warn("ses selected but no client available, falling back to stub")
	}
	return notify.NewStubEmailSender(logger)
}

// BuildMetrics creates a dedicated prometheus registry with the scheduling
// metrics and runtime collectors, plus the /metrics handler serving it.
func BuildMetrics() (http.Handler, *metrics.SchedulingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewSchedulingMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

// Pinger is the readiness dependency of the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BuildHealthHandler reports ok when the database answers a ping. A nil
// pinger degrades to a plain liveness check.
func BuildHealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
