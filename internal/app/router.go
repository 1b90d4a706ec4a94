package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	insightshttp "github.com/noah-isme/finsight/internal/insights/http"
	"github.com/noah-isme/finsight/internal/observability"
	"github.com/noah-isme/finsight/internal/platform/httpx"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	InsightsHandler *insightshttp.Handler
	Frontend        http.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router serving the API and the SPA front.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	mwCfg := MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}

	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(mwCfg) {
		r.Use(mw)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(chimw.Logger)
		for _, mw := range APIMiddlewareStack(mwCfg) {
			api.Use(mw)
		}
		api.Get("/health", healthHandler(params.Config))
		if params.InsightsHandler != nil {
			params.InsightsHandler.MountRoutes(api)
		}
		api.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httpx.RespondError(w, httpx.ErrNotFound)
		})
		api.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			httpx.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.Frontend != nil {
		r.Handle("/*", params.Frontend)
	}

	return r
}
