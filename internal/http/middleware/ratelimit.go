package middleware

import (
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/rogerio-castellano/product-management/internal/http/ban"
	rl "github.com/rogerio-castellano/product-management/internal/http/rate_limiter"
	"github.com/rogerio-castellano/product-management/internal/http/respond"
	"github.com/rogerio-castellano/product-management/internal/logger"
)

// clientKey expects chi's RealIP middleware to have normalised RemoteAddr.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit rejects banned clients with 403 and over-limit requests with 429.
// Every rejection counts as a strike towards a ban.
func RateLimit(limiter *rl.Limiter, bans ban.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			log := logger.FromContext(r.Context())

			banned, err := bans.IsBanned(r.Context(), key)
			if err != nil {
				log.Warn("ban lookup failed", zap.Error(err))
			}
			if banned {
				respond.Message(w, http.StatusForbidden, "Too many requests. You are temporarily banned.")
				return
			}

			if limiter.Allow(key) {
				next.ServeHTTP(w, r)
				return
			}

			nowBanned, err := bans.Strike(r.Context(), key, r.URL.Path)
			if err != nil {
				log.Warn("strike not recorded", zap.Error(err))
			}
			if nowBanned {
				log.Warn("client banned", zap.String("client", key), zap.String("route", r.URL.Path))
				respond.Message(w, http.StatusForbidden, "Too many requests. You are temporarily banned.")
				return
			}
			respond.Message(w, http.StatusTooManyRequests, "Too many requests")
		})
	}
}
