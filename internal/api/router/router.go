package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/reservation-dialogue/internal/clinic"
	"github.com/wolfman30/reservation-dialogue/internal/conversation"
	httpmiddleware "github.com/wolfman30/reservation-dialogue/internal/http/middleware"
	"github.com/wolfman30/reservation-dialogue/pkg/logging"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ChatHandler        *conversation.Handler
	OptionsHandler     http.Handler
	ClinicHandler      *clinic.Handler
	TranscriptHandler  *conversation.TranscriptHandler
	MetricsHandler     http.Handler
	RateLimiter        *httpmiddleware.RateLimiter
	AdminAuthSecret    string
	PatientAuthSecret  string
	CORSAllowedOrigins []string
	HealthChecks       map[string]HealthCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg.HealthChecks))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter, cfg.Logger))
		}
		if cfg.OptionsHandler != nil {
			api.Get("/reservation/options/", cfg.OptionsHandler.ServeHTTP)
		}
		if cfg.ChatHandler != nil {
			api.With(httpmiddleware.PatientAuth(cfg.PatientAuthSecret)).Post("/chat/", cfg.ChatHandler.Chat)
		}
	})

	if cfg.AdminAuthSecret != "" && (cfg.ClinicHandler != nil || cfg.TranscriptHandler != nil) {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.ClinicHandler != nil {
				admin.Mount("/clinics", cfg.ClinicHandler.Routes())
			}
			if cfg.TranscriptHandler != nil {
				admin.Mount("/sessions", cfg.TranscriptHandler.Routes())
			}
		})
	}

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		resp := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp[name] = "unavailable"
				resp["status"] = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp[name] = "ok"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
