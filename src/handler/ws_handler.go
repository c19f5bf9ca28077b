package handler

import (
	"net/http"

	logger "github.com/sirupsen/logrus"
)

type wsServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID uint) error
}

// WebSocketHandler subscribes the caller to updates of their own pulses.
func WebSocketHandler(hub wsServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		// The upgrader has already answered the request when this fails.
		if err := hub.ServeWS(w, r, user.ID); err != nil {
			logger.WithError(err).WithField("user_id", user.ID).Warn("websocket upgrade failed")
		}
	}
}
