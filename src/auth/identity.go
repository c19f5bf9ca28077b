package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

var ErrInvalidIdentityToken = errors.New("invalid identity token")

// Identity is what the identity provider vouches for.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// IdentityVerifier exchanges a client-side identity token for a verified identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type identityErrorBody struct {
	Error string `json:"error"`
}

// RemoteVerifier asks the identity provider's verification endpoint.
type RemoteVerifier struct {
	client *resty.Client
	url    string
}

func NewRemoteVerifier(config Config) *RemoteVerifier {
	client := resty.New().
		SetTimeout(config.IdentityTimeout).
		SetHeader("Accept", "application/json")
	if config.IdentityAPIKey != "" {
		client.SetHeader("X-API-Key", config.IdentityAPIKey)
	}
	return &RemoteVerifier{client: client, url: config.IdentityVerifyURL}
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if v.url == "" {
		return nil, errors.New("IDENTITY_VERIFY_URL is not configured")
	}

	var identity Identity
	var errBody identityErrorBody

	resp, err := v.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"token": token}).
		SetResult(&identity).
		SetError(&errBody).
		Post(v.url)
	if err != nil {
		return nil, fmt.Errorf("identity provider request: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		logger.WithField("reason", errBody.Error).Warn("identity token rejected")
		return nil, ErrInvalidIdentityToken
	case resp.IsError():
		return nil, fmt.Errorf("identity provider returned %d: %s", resp.StatusCode(), errBody.Error)
	}

	if identity.UID == "" {
		return nil, ErrInvalidIdentityToken
	}
	return &identity, nil
}
