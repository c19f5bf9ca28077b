package security

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// AdminSetupKey is either a plain secret or a bcrypt hash of one.
	AdminSetupKey string `envconfig:"ADMIN_SETUP_KEY"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
