package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vendora-dev/vendora-backend/pkg/logger"
)

// Pinger is a dependency whose connectivity the health check verifies.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServerParams configure the ops HTTP server.
type ServerParams struct {
	Logger *logger.Logger
	DB     Pinger
	Redis  Pinger
}

// NewRouter builds the operational router: liveness plus prometheus metrics.
func NewRouter(params ServerParams) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/healthz", healthzHandler(params))
	router.Handle("/metrics", promhttp.Handler())
	return router
}

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func healthzHandler(params ServerParams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := healthStatus{Status: "ok", Checks: map[string]string{}}
		code := http.StatusOK

		check := func(name string, pinger Pinger) {
			if pinger == nil {
				status.Checks[name] = "skipped"
				return
			}
			if err := pinger.Ping(ctx); err != nil {
				status.Checks[name] = "down"
				status.Status = "degraded"
				code = http.StatusServiceUnavailable
				if params.Logger != nil {
					params.Logger.Error(ctx, "health check failed for "+name, err)
				}
				return
			}
			status.Checks[name] = "up"
		}
		check("database", params.DB)
		check("redis", params.Redis)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
