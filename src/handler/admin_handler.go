package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	logger "github.com/sirupsen/logrus"

	"tradepulse/src/apperr"
	"tradepulse/src/model"
	"tradepulse/src/response"
	"tradepulse/src/security"
)

type adminStore interface {
	CountAdmins(ctx context.Context) (int64, error)
	PromoteToAdmin(ctx context.Context, uid string) (*model.User, error)
}

type bulkRecomputer interface {
	RecomputeAll(ctx context.Context, user *model.User) (int, error)
}

// AdminSetupHandler promotes the first administrator. It refuses once any
// admin exists; the check and the promotion are separate statements.
func AdminSetupHandler(setupKey string, users adminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.AdminSetupPayload
		if err := decodeJSON(r, &payload); err != nil {
			response.Fail(w, err)
			return
		}

		uid := strings.TrimSpace(payload.UID)
		if uid == "" || payload.SecretKey == "" {
			response.Fail(w, apperr.Validation("uid and secretKey are required"))
			return
		}

		if err := security.VerifySetupKey(setupKey, payload.SecretKey); err != nil {
			if errors.Is(err, security.ErrSetupKeyNotConfigured) {
				logger.Error("ADMIN_SETUP_KEY is not set, refusing admin setup")
				response.Fail(w, apperr.New(apperr.CodeServer, "admin setup is not configured"))
				return
			}
			logger.WithField("ip", r.RemoteAddr).Warn("admin setup attempted with a wrong key")
			response.Fail(w, apperr.Unauthorized("invalid secret key"))
			return
		}

		admins, err := users.CountAdmins(r.Context())
		if err != nil {
			response.Fail(w, fmt.Errorf("count admins: %w", err))
			return
		}
		if admins > 0 {
			response.Fail(w, apperr.Validation("an admin already exists"))
			return
		}

		user, err := users.PromoteToAdmin(r.Context(), uid)
		if err != nil {
			response.Fail(w, fmt.Errorf("promote admin: %w", err))
			return
		}

		logger.WithField("uid", user.UID).Info("admin bootstrap completed")
		response.OK(w, map[string]string{"uid": user.UID, "role": user.Role})
	}
}

// RecomputeAllHandler reruns the aggregator for every pulse. Admins only.
func RecomputeAllHandler(svc bulkRecomputer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		count, err := svc.RecomputeAll(r.Context(), user)
		if err != nil && count == 0 {
			response.Fail(w, err)
			return
		}
		if err != nil {
			logger.WithError(err).Warn("recompute finished with failures")
		}
		response.OK(w, map[string]int{"recomputed": count})
	}
}
