package router

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-globalseller/internal/auth"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/common"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/seller"
)

// Pinger reports store health; *sql.DB and *sqlx.DB satisfy it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the HTTP surface is assembled from.
type Deps struct {
	Auth          *auth.Service
	SecureCookies bool
	Sellers       *seller.Service
	DB            Pinger
	// Gatherer backs GET /metrics; nil hides the endpoint.
	Gatherer prometheus.Gatherer
	Metrics  *Metrics
}

// RegisterRoutes mounts every handler on a stdlib ServeMux and wraps it
// with request id, logging, security header and metrics middleware.
func RegisterRoutes(logger *zap.SugaredLogger, d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler(logger, d.DB))
	if d.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	protect := auth.RequireSession(d.Auth, logger)

	authHandler := auth.NewHandler(d.Auth, logger, d.SecureCookies)
	mux.HandleFunc("POST /api/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/auth/me", protect(http.HandlerFunc(authHandler.Me)))
	mux.Handle("POST /api/auth/change-password", protect(http.HandlerFunc(authHandler.ChangePassword)))

	sellerHandler := seller.NewHandler(d.Sellers, logger)
	mux.Handle("GET /api/global-sellers", protect(http.HandlerFunc(sellerHandler.List)))
	mux.Handle("POST /api/global-sellers", protect(http.HandlerFunc(sellerHandler.Create)))
	mux.Handle("GET /api/global-sellers/{id}", protect(http.HandlerFunc(sellerHandler.Get)))
	mux.Handle("PUT /api/global-sellers/{id}", protect(http.HandlerFunc(sellerHandler.Update)))
	mux.Handle("DELETE /api/global-sellers/{id}", protect(http.HandlerFunc(sellerHandler.Delete)))

	return Chain(mux,
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		SecurityHeadersMiddleware(),
		d.Metrics.Middleware(),
	)
}

func healthHandler(logger *zap.SugaredLogger, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				logger.Warnw("health check: database unreachable", "err", err)
				common.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
					"success": false,
					"error":   map[string]string{"message": "database unavailable"},
				})
				return
			}
		}
		common.WriteData(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
