package auth

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	SessionSecret     string        `envconfig:"SESSION_SECRET"`
	SessionTTL        time.Duration `envconfig:"SESSION_TTL" default:"120h"`
	SessionCookieName string        `envconfig:"SESSION_COOKIE_NAME" default:"session"`
	SecureCookie      bool          `envconfig:"SESSION_COOKIE_SECURE" default:"true"`
	IdentityVerifyURL string        `envconfig:"IDENTITY_VERIFY_URL"`
	IdentityAPIKey    string        `envconfig:"IDENTITY_API_KEY"`
	IdentityTimeout   time.Duration `envconfig:"IDENTITY_TIMEOUT" default:"10s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
