// Package router assembles the HTTP surface of the clinic platform.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dentalis/clinic-platform/internal/catalog"
	httpmiddleware "github.com/dentalis/clinic-platform/internal/http/middleware"
	"github.com/dentalis/clinic-platform/internal/scheduling"
	"github.com/dentalis/clinic-platform/internal/verify"
	"github.com/dentalis/clinic-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	AppointmentsHandler *scheduling.Handler
	CatalogHandler      *catalog.Handler
	VerifyHandler       *verify.Handler
	HealthHandler       http.HandlerFunc
	MetricsHandler      http.Handler
	PatientJWTSecret    string
	CORSAllowedOrigins  []string
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		if cfg.HealthHandler != nil {
			public.Get("/health", cfg.HealthHandler)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.VerifyHandler != nil {
			public.Route("/api/v1/auth", func(auth chi.Router) {
				auth.Use(httpmiddleware.RateLimit(1, 5))
				auth.Post("/request-code", cfg.VerifyHandler.RequestCode)
				auth.Post("/confirm", cfg.VerifyHandler.Confirm)
			})
		}
		if cfg.CatalogHandler != nil {
			public.Get("/api/v1/workers", cfg.CatalogHandler.ListWorkers)
			public.Get("/api/v1/services", cfg.CatalogHandler.ListServices)
		}
		if cfg.AppointmentsHandler != nil {
			public.Get("/api/v1/appointments/slots", cfg.AppointmentsHandler.FreeSlots)
		}
	})

	// Patient session endpoints
	if cfg.AppointmentsHandler != nil {
		r.Group(func(patient chi.Router) {
			patient.Use(httpmiddleware.PatientJWT(cfg.PatientJWTSecret))
			patient.With(httpmiddleware.RateLimit(2, 10)).Post("/api/v1/appointments", cfg.AppointmentsHandler.Create)
			patient.Get("/api/v1/appointments", cfg.AppointmentsHandler.ListMine)
			patient.Patch("/api/v1/appointments/{id}/status", cfg.AppointmentsHandler.ChangeStatus)
		})
	}

	return r
}
