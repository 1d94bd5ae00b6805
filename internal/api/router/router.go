package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vinamind/tamsu-api/internal/chat"
	httpmiddleware "github.com/vinamind/tamsu-api/internal/http/middleware"
	"github.com/vinamind/tamsu-api/internal/observability/metrics"
	"github.com/vinamind/tamsu-api/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ChatHandler        *chat.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Per-IP limit on /v1/chat; disabled when RateLimitPerSec is zero.
	RateLimitPerSec float64
	RateLimitBurst  int
	HTTPMetrics     *metrics.HTTPMetrics
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5, "application/json"))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/v1", func(v1 chi.Router) {
		chatRoute := v1.With()
		if cfg.RateLimitPerSec > 0 {
			chatRoute = v1.With(httpmiddleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst, cfg.HTTPMetrics))
		}
		chatRoute.Post("/chat", cfg.ChatHandler.Chat)
		v1.Get("/chat/history", cfg.ChatHandler.History)
		v1.Post("/moderation/scan", cfg.ChatHandler.ModerationScan)
	})

	return r
}
