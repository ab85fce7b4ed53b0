// Package http assembles the shelf API: routes, middleware chain and the
// health probes.
package http

import (
	"context"
	"net/http"
	"time"

	"shelf/internal/book"
	"shelf/internal/config"
	"shelf/internal/httpx"
	"shelf/internal/lookup"
	"shelf/internal/user"

	"go.uber.org/zap"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	App    config.AppConfig
	Secret string
	Log    *zap.Logger
	Books  *book.Service
	Users  *user.Service
	Lookup *lookup.Service
	Store  Pinger
}

// NewRouter returns the API handler and a stop func that releases the
// rate limiter's background goroutine.
func NewRouter(d Deps) (http.Handler, func()) {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if d.Store != nil {
			if err := d.Store.Ping(ctx); err != nil {
				d.Log.Warn("readiness check failed", zap.Error(err))
				http.Error(w, "store not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	auth := httpx.AuthMiddleware(d.Secret)
	user.NewHTTPHandler(d.Users, d.Log).Register(router, auth)
	book.NewHTTPHandler(d.Books, d.Log).Register(router, auth)
	lookup.NewHTTPHandler(d.Lookup, d.Log).Register(router, auth)

	middlewares := []func(http.Handler) http.Handler{
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(d.Log),
		httpx.RecoveryMiddleware(d.Log),
		httpx.SecurityHeadersMiddleware(d.App.EnableHSTS),
		httpx.CORSMiddleware(d.App.AllowedOrigins),
	}
	if d.App.MaxBodyBytes > 0 {
		middlewares = append(middlewares, httpx.RequestSizeLimitMiddleware(d.App.MaxBodyBytes))
	}

	stop := func() {}
	if d.App.RateLimitRPS > 0 {
		rl := httpx.NewRateLimitMiddleware(d.App.RateLimitRPS, d.App.RateLimitBurst)
		middlewares = append(middlewares, rl.Middleware)
		stop = rl.Stop
	}

	return httpx.Chain(router, middlewares...), stop
}
