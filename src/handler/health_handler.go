package handler

import (
	"context"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"tradepulse/src/apperr"
	"tradepulse/src/response"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

// HealthcheckHandler answers OK when the database responds.
func HealthcheckHandler(db pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				logger.WithError(err).Error("healthcheck: database unreachable")
				response.Fail(w, apperr.Wrap(apperr.CodeServer, "database unreachable", err))
				return
			}
		}

		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("healthcheck write failed")
		}
	}
}
