package app

import (
	"net/http"

	"github.com/noah-isme/finsight/internal/platform/httpx"
)

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	Status string    `json:"status"`
	Env    HealthEnv `json:"env"`
}

// HealthEnv reports which integrations are configured, never their values.
type HealthEnv struct {
	HasGemini   bool `json:"hasGemini"`
	HasSupabase bool `json:"hasSupabase"`
}

func healthHandler(cfg *Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, HealthStatus{
			Status: "ok",
			Env: HealthEnv{
				HasGemini:   cfg.HasGemini(),
				HasSupabase: cfg.HasSupabase(),
			},
		})
	}
}
