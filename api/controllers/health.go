package controllers

import (
	"context"
	"net/http"

	"github.com/mensahub/canteen-backend/api/responses"
	"github.com/mensahub/canteen-backend/pkg/config"
	pkgerrors "github.com/mensahub/canteen-backend/pkg/errors"
	"github.com/mensahub/canteen-backend/pkg/logger"
)

// Pinger is the connectivity probe the readiness endpoint walks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MensaHub-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, probes map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MensaHub-Env", cfg.App.Env)
		for name, probe := range probes {
			if probe == nil {
				continue
			}
			if err := probe.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency unavailable").
						WithDetails(map[string]any{"dependency": name}))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
