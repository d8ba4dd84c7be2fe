package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/OneKeyCoder/batdongscam-backend/api/responses"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/config"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/db"
	pkgerrors "github.com/OneKeyCoder/batdongscam-backend/pkg/errors"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "live", "env": cfg.App.Env})
	}
}

// HealthReady answers 200 only when the datastores are reachable.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers ...db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		for _, pinger := range pingers {
			if pinger == nil {
				continue
			}
			if err := pinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency not ready"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready", "env": cfg.App.Env})
	}
}
