package handler

import (
	"context"
	"net/http"

	"tradepulse/src/model"
	"tradepulse/src/response"
)

type accountDeleter interface {
	DeleteAccount(ctx context.Context, user *model.User, confirmation string) error
}

func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		response.OK(w, user.ToResponse())
	}
}

// DeleteAccountHandler expects {"confirmation": "<account email>"} and signs
// the caller out once everything they own is gone.
func DeleteAccountHandler(svc accountDeleter, cookie CookieSettings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		var payload model.ConfirmationPayload
		if err := decodeJSON(r, &payload); err != nil {
			response.Fail(w, err)
			return
		}

		if err := svc.DeleteAccount(r.Context(), user, payload.Confirmation); err != nil {
			response.Fail(w, err)
			return
		}

		clearSessionCookie(w, cookie)
		response.OK(w, map[string]bool{"deleted": true})
	}
}
