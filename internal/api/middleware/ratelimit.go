package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"threatdash/pkg/logger"
)

// WindowLimiter counts requests per key in fixed windows.
// *cache.RedisCache implements it.
type WindowLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, time.Time, error)
}

// RateLimiter returns middleware that limits each client to perMinute
// requests. With a shared limiter the budget is enforced across instances;
// with nil it falls back to an in-process token bucket per client.
func RateLimiter(shared WindowLimiter, perMinute int, log *logger.Logger) func(next http.Handler) http.Handler {
	local := newLocalLimiter(perMinute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip rate limiting for OPTIONS
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			clientID := getClientID(r)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(perMinute))

			if shared != nil {
				allowed, remaining, resetTime, err := shared.CheckRateLimit(r.Context(), clientID, int64(perMinute), time.Minute)
				if err == nil {
					w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
					w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))
					if !allowed {
						retry := max(int64(time.Until(resetTime).Seconds()), 1)
						w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))
						writeError(w, http.StatusTooManyRequests, "Too many requests", "Rate limit exceeded")
						return
					}
					next.ServeHTTP(w, r)
					return
				}
				log.Warn().Err(err).Msg("shared rate limiter unavailable, using local limiter")
			}

			if !local.allow(clientID) {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "Too many requests", "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// localIdleTTL is how long a client's bucket is kept without requests. A
// bucket idle for a minute is full again, so dropping it later changes nothing.
const localIdleTTL = 2 * time.Minute

// localLimiter keeps one token bucket per client. Idle buckets are swept
// while serving requests.
type localLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	clients   map[string]*localClient
	lastSweep time.Time
	now       func() time.Time
}

type localClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLocalLimiter(perMinute int) *localLimiter {
	return &localLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   max(perMinute, 1),
		clients: make(map[string]*localClient),
		now:     time.Now,
	}
}

func (l *localLimiter) allow(client string) bool {
	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= localIdleTTL {
		l.sweep(now)
	}
	c, ok := l.clients[client]
	if !ok {
		c = &localClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[client] = c
	}
	c.lastSeen = now
	l.mu.Unlock()
	return c.limiter.AllowN(now, 1)
}

// sweep drops clients idle for localIdleTTL. Callers hold mu.
func (l *localLimiter) sweep(now time.Time) {
	for id, c := range l.clients {
		if now.Sub(c.lastSeen) >= localIdleTTL {
			delete(l.clients, id)
		}
	}
	l.lastSweep = now
}

// getClientID returns a unique identifier for the client
func getClientID(r *http.Request) string {
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		return fmt.Sprintf("user:%s", claims.Subject)
	}

	// RealIP has already rewritten RemoteAddr from X-Forwarded-For / X-Real-IP
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return fmt.Sprintf("ip:%s", ip)
}
