package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	logger "github.com/sirupsen/logrus"

	"tradepulse/src/auth"
	"tradepulse/src/handler"
)

// NewRouter mounts every route on a chi router.
func NewRouter(deps *Dependencies) http.Handler {
	r := chi.NewRouter()

	// === Global Middleware ===
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/healthcheck", handler.HealthcheckHandler(deps.DB))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/session", handler.CreateSessionHandler(deps.Identity, deps.Users, deps.Sessions, deps.Cookie))
		r.Delete("/auth/session", handler.DeleteSessionHandler(deps.Cookie))
		r.With(deps.AdminLimiter.Middleware).
			Post("/admin/setup", handler.AdminSetupHandler(deps.AdminSetupKey, deps.Users))

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(deps.Sessions, deps.Users, deps.Cookie.Name))

			r.Get("/me", handler.MeHandler())
			r.Delete("/me", handler.DeleteAccountHandler(deps.Journal, deps.Cookie))
			r.Get("/ws", handler.WebSocketHandler(deps.Hub))
			r.Post("/admin/recompute", handler.RecomputeAllHandler(deps.Journal))

			r.Route("/pulses", func(r chi.Router) {
				r.Get("/", handler.ListPulsesHandler(deps.Journal))
				r.Post("/", handler.CreatePulseHandler(deps.Journal))

				r.Route("/{pulseID}", func(r chi.Router) {
					r.Get("/", handler.GetPulseHandler(deps.Journal))
					r.Delete("/", handler.DeletePulseHandler(deps.Journal))
					r.Put("/settings", handler.UpdatePulseSettingsHandler(deps.Journal))
					r.Post("/archive", handler.ArchivePulseHandler(deps.Journal))
					r.Post("/unarchive", handler.UnarchivePulseHandler(deps.Journal))
					r.Post("/recompute", handler.RecomputeStatsHandler(deps.Journal))

					r.Get("/trades", handler.ListTradesHandler(deps.Journal))
					r.Post("/trades", handler.AddTradeHandler(deps.Journal))
					r.Get("/trades/{tradeID}", handler.GetTradeHandler(deps.Journal))
					r.Put("/trades/{tradeID}", handler.UpdateTradeHandler(deps.Journal))
					r.Delete("/trades/{tradeID}", handler.DeleteTradeHandler(deps.Journal))
				})
			})
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.WithFields(map[string]interface{}{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
		}).Debug("request served")
	})
}
