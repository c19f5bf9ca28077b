package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepulse/src/auth"
	"tradepulse/src/model"
)

type mockVerifier struct {
	identity *auth.Identity
	err      error
}

func (m *mockVerifier) Verify(context.Context, string) (*auth.Identity, error) {
	return m.identity, m.err
}

type mockUpserter struct {
	saved *model.User
	err   error
}

func (m *mockUpserter) Upsert(_ context.Context, u *model.User) error {
	if m.err != nil {
		return m.err
	}
	u.ID = 10
	u.Role = model.RoleUser
	m.saved = u
	return nil
}

type mockIssuer struct {
	expires time.Time
}

func (m *mockIssuer) Issue(user *model.User) (string, time.Time, error) {
	return "token-for-" + user.UID, m.expires, nil
}

func TestCreateSessionHandler(t *testing.T) {
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	users := &mockUpserter{}
	h := CreateSessionHandler(
		&mockVerifier{identity: &auth.Identity{UID: "uid-1", Email: "a@example.com", DisplayName: "A"}},
		users,
		&mockIssuer{expires: expires},
		CookieSettings{Name: "session", Secure: true},
	)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/session", strings.NewReader(`{"token":"idtoken"}`)))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NotNil(t, users.saved)
	assert.Equal(t, "a@example.com", users.saved.Email)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, "token-for-uid-1", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
}

func TestCreateSessionHandler_Failures(t *testing.T) {
	tests := []struct {
		name       string
		verifier   *mockVerifier
		users      *mockUpserter
		body       string
		wantStatus int
	}{
		{"missing token", &mockVerifier{}, &mockUpserter{}, `{}`, http.StatusBadRequest},
		{"rejected token", &mockVerifier{err: auth.ErrInvalidIdentityToken}, &mockUpserter{}, `{"token":"x"}`, http.StatusUnauthorized},
		{"provider down", &mockVerifier{err: assert.AnError}, &mockUpserter{}, `{"token":"x"}`, http.StatusInternalServerError},
		{"store down", &mockVerifier{identity: &auth.Identity{UID: "u"}}, &mockUpserter{err: assert.AnError}, `{"token":"x"}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CreateSessionHandler(tt.verifier, tt.users, &mockIssuer{}, CookieSettings{Name: "session"})
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/session", strings.NewReader(tt.body)))

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			assert.Empty(t, rr.Result().Cookies())
		})
	}
}

func TestDeleteSessionHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	DeleteSessionHandler(CookieSettings{Name: "session"}).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/auth/session", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}
