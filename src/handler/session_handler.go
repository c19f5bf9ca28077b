package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradepulse/src/apperr"
	"tradepulse/src/auth"
	"tradepulse/src/model"
	"tradepulse/src/response"
)

type userUpserter interface {
	Upsert(ctx context.Context, u *model.User) error
}

type sessionIssuer interface {
	Issue(user *model.User) (string, time.Time, error)
}

// CookieSettings controls the session cookie written by the session endpoints.
type CookieSettings struct {
	Name   string
	Secure bool
}

// CookieSettingsFrom reads the cookie options out of the auth config.
func CookieSettingsFrom(config auth.Config) CookieSettings {
	return CookieSettings{Name: config.SessionCookieName, Secure: config.SecureCookie}
}

type sessionResponse struct {
	User      model.UserResponse `json:"user"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// CreateSessionHandler exchanges a client identity token for a session cookie.
// The local user profile is created on first sign-in.
func CreateSessionHandler(
	verifier auth.IdentityVerifier,
	users userUpserter,
	sessions sessionIssuer,
	cookie CookieSettings,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.SessionPayload
		if err := decodeJSON(r, &payload); err != nil {
			response.Fail(w, err)
			return
		}

		identity, err := verifier.Verify(r.Context(), payload.Token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidIdentityToken) {
				response.Fail(w, apperr.Unauthorized("identity token rejected"))
				return
			}
			logger.WithError(err).Error("failed to verify identity token")
			response.Fail(w, fmt.Errorf("verify identity: %w", err))
			return
		}

		user := &model.User{UID: identity.UID, Email: identity.Email, DisplayName: identity.DisplayName}
		if err := users.Upsert(r.Context(), user); err != nil {
			logger.WithError(err).Error("failed to upsert user on sign-in")
			response.Fail(w, fmt.Errorf("save user: %w", err))
			return
		}

		token, expires, err := sessions.Issue(user)
		if err != nil {
			response.Fail(w, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     cookie.Name,
			Value:    token,
			Path:     "/",
			Expires:  expires,
			HttpOnly: true,
			Secure:   cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		response.OK(w, sessionResponse{User: user.ToResponse(), ExpiresAt: expires})
	}
}

// DeleteSessionHandler clears the session cookie.
func DeleteSessionHandler(cookie CookieSettings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clearSessionCookie(w, cookie)
		response.OK(w, map[string]bool{"signed_out": true})
	}
}

func clearSessionCookie(w http.ResponseWriter, cookie CookieSettings) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
