package controllers

import (
	"context"
	"net/http"

	"go.uber.org/multierr"

	"github.com/yutosugimura/saltbreeze-backend/api/responses"
	"github.com/yutosugimura/saltbreeze-backend/pkg/config"
	pkgerrors "github.com/yutosugimura/saltbreeze-backend/pkg/errors"
	"github.com/yutosugimura/saltbreeze-backend/pkg/logger"
)

// Pinger is the health-check surface shared by the datastores.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Saltbreeze-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every hard dependency and aggregates the failures so one
// probe response names everything that is down.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Saltbreeze-Env", cfg.App.Env)

		var errs error
		failing := []string{}
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				errs = multierr.Append(errs, err)
				failing = append(failing, name)
			}
		}

		if errs != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "dependencies unavailable").
					WithDetails(map[string]any{"failing": failing}))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
