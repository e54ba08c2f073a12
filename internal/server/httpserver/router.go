package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yndnr/roster-go/internal/core/domain"
	"github.com/yndnr/roster-go/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Handler *handler.Handler

	// Metrics serves /metrics when set.
	Metrics http.Handler

	// Requests receives per-request metrics when set.
	Requests RequestObserver

	// AdminToken protects /admin/v1. Empty disables authentication.
	AdminToken string

	// RateLimit is requests per second per client on /admin/v1.
	// 0 disables limiting.
	RateLimit float64
	RateBurst int

	Logger *slog.Logger
}

// NewRouter creates the router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "http")
	h := cfg.Handler

	r := chi.NewRouter()
	r.Use(RequestID(), AccessLog(log, cfg.Requests), Recover(log))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		handler.WriteError(w, req, log, domain.NewDomainError("RS-SYS-4040", "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		handler.WriteError(w, req, log, domain.NewDomainError("RS-SYS-4050", "method not allowed"))
	})

	r.Get("/health", h.Health)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/admin/v1", func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(NewRateLimiter(cfg.RateLimit, cfg.RateBurst, log).Middleware())
		}
		r.Use(AdminAuth(cfg.AdminToken, log))

		r.Get("/backups", h.List)
		r.Get("/backups/status", h.Status)
		r.Get("/backups/report", h.Report)
		r.Get("/backups/history", h.History)
		r.Post("/backups/start", h.Start)
		r.Post("/backups/stop", h.Stop)
		r.Post("/backups/trigger", h.Trigger)
	})

	return r
}
