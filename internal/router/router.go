package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pnithesh/viralvision-backend/internal/auth"
	"github.com/pnithesh/viralvision-backend/internal/video"
	"github.com/pnithesh/viralvision-backend/pkg/utilities"
)

// Deps are the collaborators mounted by RegisterRoutes.
type Deps struct {
	Logger   *zap.SugaredLogger
	Auth     *auth.Handler
	Videos   *video.Handler
	Verifier auth.Verifier
	// HealthCheck backs GET /health. Nil reports healthy.
	HealthCheck func(ctx context.Context) error
	CORSOrigins []string
	// AuthLimiter throttles register and login. Nil disables it.
	AuthLimiter RateLimiter
}

// RegisterRoutes builds the chi router with the full middleware chain.
func RegisterRoutes(d Deps) (http.Handler, error) {
	if d.Logger == nil {
		d.Logger = zap.NewNop().Sugar()
	}
	policy, err := newCORSPolicy(d.CORSOrigins)
	if err != nil {
		return nil, fmt.Errorf("cors: %w", err)
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(LoggingMiddleware(d.Logger))
	r.Use(Recoverer(d.Logger))
	r.Use(SecurityHeadersMiddleware())
	r.Use(corsMiddleware(policy, d.Logger))
	r.Use(AllowContentType("application/json"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utilities.WriteJSON(w, http.StatusNotFound, map[string]string{"message": "Route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utilities.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "Method not allowed"})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utilities.WriteJSON(w, http.StatusOK, map[string]string{"message": "ViralVision Backend API is running!"})
	})
	r.Get("/health", health(d.HealthCheck, d.Logger))

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(RateLimit(d.AuthLimiter))
		r.Post("/register", d.Auth.Register)
		r.Post("/login", d.Auth.Login)
	})

	r.Route("/api/videos", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.Verifier, d.Logger))
		r.Get("/", d.Videos.List)
		r.Post("/", d.Videos.Create)
		r.Get("/{id}", d.Videos.Get)
		r.Put("/{id}", d.Videos.Update)
		r.Delete("/{id}", d.Videos.Delete)
	})

	return r, nil
}

func health(check func(ctx context.Context) error, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.Warnw("health check failed", "err", err)
				utilities.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		utilities.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
