package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/logan/usecasehub/internal/api/response"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns middleware that limits requests per authenticated user,
// falling back to the remote address for anonymous requests.
// rps is the steady-state rate (requests per second), burst is the max burst size.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(math.Ceil(1 / rps)))

	var mu sync.Mutex
	limiters := make(map[string]*clientLimiter)

	// Cleanup stale entries every 3 minutes
	go func() {
		for {
			time.Sleep(3 * time.Minute)
			mu.Lock()
			for key, l := range limiters {
				if time.Since(l.lastSeen) > 5*time.Minute {
					delete(limiters, key)
				}
			}
			mu.Unlock()
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limitKey(r)

			mu.Lock()
			l, ok := limiters[key]
			if !ok {
				l = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
				limiters[key] = l
			}
			l.lastSeen = time.Now()
			mu.Unlock()

			if !l.limiter.Allow() {
				w.Header().Set("Retry-After", retryAfter)
				response.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func limitKey(r *http.Request) string {
	if id := UserIDFromContext(r.Context()); id != 0 {
		return "user:" + strconv.Itoa(id)
	}
	return "addr:" + r.RemoteAddr
}
