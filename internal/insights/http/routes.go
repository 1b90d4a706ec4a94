package insightshttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/noah-isme/finsight/internal/platform/httpx"
)

const rateWindow = time.Minute

// MountRoutes registers the insights endpoint on an /api router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Group(func(gr chi.Router) {
		if h.opts.RateLimit > 0 {
			gr.Use(httprate.Limit(h.opts.RateLimit, rateWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					httpx.RespondError(w, httpx.ErrTooManyRequests)
				}),
			))
		}
		gr.Use(h.requireConfigured)
		gr.Use(requireJSON)
		gr.Post("/ai/insights", h.handleGenerate)
	})
}
