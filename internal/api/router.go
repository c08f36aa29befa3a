// Package api provides the HTTP surface of the local view host.
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/api/feed"
	"github.com/weatherdash/weatherdash/internal/api/handler"
	"github.com/weatherdash/weatherdash/internal/api/middleware"
	"github.com/weatherdash/weatherdash/internal/dashboard"
	"github.com/weatherdash/weatherdash/internal/featureflags"
	"github.com/weatherdash/weatherdash/internal/mapview"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger  zerolog.Logger
	Metrics *middleware.Metrics

	// LoopbackOnly rejects non-local peers.
	LoopbackOnly bool

	Ops                handler.OpsConfig
	Dashboard          *dashboard.Dashboard
	Picker             *mapview.Picker
	ChartFeed          *feed.Feed
	FeatureFlagService *featureflags.Service

	// EventHeartbeat is the keep-alive interval of the event stream.
	EventHeartbeat time.Duration
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	if cfg.LoopbackOnly {
		r.Use(middleware.LoopbackOnly) // before RealIP rewrites the peer
	}
	r.Use(middleware.Tracing)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(cfg.Ops)
	dashHandler := handler.NewDashboardHandler(cfg.Dashboard, cfg.Logger)
	mapHandler := handler.NewMapHandler(cfg.Picker, cfg.Logger)
	eventsHandler := handler.NewEventsHandler(cfg.Dashboard.Store(), cfg.ChartFeed, cfg.EventHeartbeat, cfg.Logger)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService, cfg.Logger)

	// Upstream lookups share a tighter budget so a runaway renderer cannot
	// exhaust provider quotas.
	upstreamRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Long-lived stream; kept outside the rate limiters.
		r.Get("/dashboard/events", eventsHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(upstreamRateLimit)
			r.Use(middleware.RequireJSON)
			r.Post("/search", dashHandler.Search)
			r.Post("/locations/select", dashHandler.SelectLocation)
			r.Post("/history/{id}/load", dashHandler.LoadHistory)
		})

		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Use(middleware.RequireJSON)

			r.Get("/dashboard", dashHandler.GetDashboard)
			r.Delete("/dashboard/error", dashHandler.DismissError)

			r.Get("/history", dashHandler.ListHistory)
			r.Delete("/history/{id}", dashHandler.RemoveHistory)

			r.Put("/preferences/units", dashHandler.SetUnits)

			r.Route("/view", func(r chi.Router) {
				r.Put("/tab", dashHandler.SetTab)
				r.Put("/day", dashHandler.SetDay)
				r.Get("/details", dashHandler.Details)
				r.Get("/cards", dashHandler.Cards)
				r.Get("/charts/{tab}", dashHandler.Chart)
			})

			r.Route("/map", func(r chi.Router) {
				r.Get("/", mapHandler.GetMap)
				r.With(upstreamRateLimit).Post("/click", mapHandler.Click)
				r.Post("/zoom", mapHandler.Zoom)
				r.Post("/fullscreen", mapHandler.ToggleFullscreen)
				r.Post("/layer-control", mapHandler.ToggleLayerControl)
				r.Post("/layers/{name}", mapHandler.ToggleLayer)
			})

			r.Route("/admin/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			})
		})
	})

	return r
}
