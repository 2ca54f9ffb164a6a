package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/centrio/centrio-backend/api/responses"
	"github.com/centrio/centrio-backend/pkg/config"
	pkgerrors "github.com/centrio/centrio-backend/pkg/errors"
	"github.com/centrio/centrio-backend/pkg/logger"
)

const readinessTimeout = 3 * time.Second

// Pinger is anything the readiness handler can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessCheck names one dependency of the readiness handler. A nil Pinger is
// reported as "disabled".
type ReadinessCheck struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Centrio-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Centrio-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		results := make(map[string]any, len(checks))
		var failed bool
		for _, check := range checks {
			if check.Pinger == nil {
				results[check.Name] = "disabled"
				continue
			}
			if err := check.Pinger.Ping(ctx); err != nil {
				results[check.Name] = err.Error()
				failed = true
				continue
			}
			results[check.Name] = "ok"
		}

		if failed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "service not ready").WithDetails(results))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": results})
	}
}
