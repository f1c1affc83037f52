package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ecocambio/eco-cambio-backend/internal/database"
	"github.com/ecocambio/eco-cambio-backend/pkg/clientip"
)

const (
	rateLimitWindow      = 60 * time.Second
	rateLimitMaxRequests = 120
	rateLimitKeyPrefix   = "ratelimit:"
)

// RateLimit is a fixed-window per-IP limiter backed by Redis. Fails open:
// when Redis is down or not configured every request passes.
func RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if database.RedisClient == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := rateLimitKeyPrefix + clientip.RealClientIP(r)
		ctx := r.Context()

		count, err := database.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			database.RedisClient.Expire(ctx, key, rateLimitWindow)
		}

		if count > rateLimitMaxRequests {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintf(w, `{"message":"Demasiadas peticiones. Intenta de nuevo más tarde.","retry_after":%d}`, int(rateLimitWindow.Seconds()))
			return
		}

		remaining := rateLimitMaxRequests - int(count)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rateLimitMaxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		next.ServeHTTP(w, r)
	})
}
