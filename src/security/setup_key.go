package security

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrSetupKeyNotConfigured = errors.New("admin setup key is not configured")
	ErrSetupKeyMismatch      = errors.New("admin setup key mismatch")
)

// VerifySetupKey checks provided against the configured admin setup key.
func VerifySetupKey(configured, provided string) error {
	if configured == "" {
		return ErrSetupKeyNotConfigured
	}
	if provided == "" {
		return ErrSetupKeyMismatch
	}

	if strings.HasPrefix(configured, "$2") {
		if err := bcrypt.CompareHashAndPassword([]byte(configured), []byte(provided)); err != nil {
			return ErrSetupKeyMismatch
		}
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(configured), []byte(provided)) != 1 {
		return ErrSetupKeyMismatch
	}
	return nil
}

// HashSetupKey returns a bcrypt hash suitable for ADMIN_SETUP_KEY.
func HashSetupKey(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
