package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/serviplace/serviplace-backend/api/responses"
	"github.com/serviplace/serviplace-backend/pkg/config"
	pkgerrors "github.com/serviplace/serviplace-backend/pkg/errors"
	"github.com/serviplace/serviplace-backend/pkg/logger"
)

const readyProbeTimeout = 2 * time.Second

// Pinger is the readiness surface a wired dependency must expose.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Serviplace-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when every wired dependency answers a
// ping within the probe timeout. Nil pingers are skipped so partial wiring
// (tests, workers) stays healthy.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Serviplace-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()

		status := map[string]string{}
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				status[name] = "down"
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" not ready").WithDetails(status))
				return
			}
			status[name] = "up"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "dependencies": status})
	}
}
