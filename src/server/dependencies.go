package server

import (
	"context"
	"fmt"

	"tradepulse/src/auth"
	"tradepulse/src/database"
	"tradepulse/src/handler"
	"tradepulse/src/journal"
	"tradepulse/src/notify"
	"tradepulse/src/ratelimit"
	"tradepulse/src/repository"
	"tradepulse/src/security"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

// Dependencies is everything the router hands to its handlers.
type Dependencies struct {
	Journal        *journal.Service
	Users          *repository.UserRepository
	Sessions       *auth.SessionManager
	Identity       auth.IdentityVerifier
	Hub            *notify.Hub
	AdminLimiter   *ratelimit.Limiter
	DB             pinger
	Cookie         handler.CookieSettings
	AdminSetupKey  string
	AllowedOrigins []string
}

// BuildDependencies wires the production implementations. database.MainDB
// must be initialized first.
func BuildDependencies(config *Config) (*Dependencies, error) {
	authConfig := auth.GetConfig()
	sessions, err := auth.NewSessionManager(authConfig.SessionSecret, authConfig.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}

	limitConfig := ratelimit.GetConfig()
	store, err := ratelimit.NewStore(limitConfig)
	if err != nil {
		return nil, fmt.Errorf("rate limit store: %w", err)
	}

	proxies, err := ratelimit.ParseTrustedProxies(limitConfig.TrustedProxies)
	if err != nil {
		return nil, err
	}
	adminLimiter := ratelimit.NewLimiter(store, "admin-setup:", limitConfig.AdminLimit, limitConfig.AdminWindow).
		WithTrustedProxies(proxies)

	sqlDB, err := database.MainDB.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}

	hub := notify.NewHub(config.AllowedOrigins)

	return &Dependencies{
		Journal:        journal.NewDefaultService(hub),
		Users:          repository.NewUserRepository(),
		Sessions:       sessions,
		Identity:       auth.NewRemoteVerifier(authConfig),
		Hub:            hub,
		AdminLimiter:   adminLimiter,
		DB:             sqlDB,
		Cookie:         handler.CookieSettingsFrom(authConfig),
		AdminSetupKey:  security.GetConfig().AdminSetupKey,
		AllowedOrigins: config.AllowedOrigins,
	}, nil
}
