package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string
	DatabaseURL   string

	// Clinic schedule settings
	ClinicTimezone string
	ClinicOpen     string
	ClinicClose    string

	// Expiry sweeper settings
	SweepInterval time.Duration
	ExpiryGrace   time.Duration

	// Patient session tokens
	PatientJWTSecret string

	// Redis (short-lived verification codes)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	VerifyCodeTTL time.Duration

	// Email notifications
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// AWS (SES email provider)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	SESFromEmail        string
	SESFromName         string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		ClinicTimezone: getEnv("CLINIC_TZ", "Asia/Yekaterinburg"),
		ClinicOpen:     getEnv("CLINIC_OPEN", "09:00"),
		ClinicClose:    getEnv("CLINIC_CLOSE", "18:00"),

		SweepInterval: getEnvAsDuration("SWEEP_INTERVAL", 5*time.Minute),
		ExpiryGrace:   getEnvAsDuration("EXPIRY_GRACE", 30*time.Minute),

		PatientJWTSecret: getEnv("PATIENT_JWT_SECRET", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		VerifyCodeTTL: getEnvAsDuration("VERIFY_CODE_TTL", 10*time.Minute),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Dentalis Clinic"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		SESFromEmail:        getEnv("SES_FROM_EMAIL", ""),
		SESFromName:         getEnv("SES_FROM_NAME", "Dentalis Clinic"),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList parses a comma-separated environment variable.
func getEnvAsList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
