package auth

import (
	"context"
	"net/http"
	"strings"

	logger "github.com/sirupsen/logrus"

	"tradepulse/src/apperr"
	"tradepulse/src/model"
	"tradepulse/src/response"
)

type userFinder interface {
	FindByUID(ctx context.Context, uid string) (*model.User, error)
}

// Middleware resolves the session cookie (or bearer token) into a user in the context.
func Middleware(sessions *SessionManager, users userFinder, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r, cookieName)
			if token == "" {
				response.Fail(w, apperr.Unauthorized("authentication required"))
				return
			}

			claims, err := sessions.Parse(token)
			if err != nil {
				logger.WithError(err).Debug("rejecting session")
				response.Fail(w, apperr.Unauthorized("invalid or expired session"))
				return
			}

			user, err := users.FindByUID(r.Context(), claims.Subject)
			if err != nil {
				response.Fail(w, err)
				return
			}
			if user == nil {
				response.Fail(w, apperr.Unauthorized("user no longer exists"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func tokenFromRequest(r *http.Request, cookieName string) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}
