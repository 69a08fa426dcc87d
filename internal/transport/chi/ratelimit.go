package chi

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fmhr12/ORN-Prognosis/internal/cache"
)

const (
	maxTrackedClients = 10000
	clientTTL         = 10 * time.Minute
)

// RateLimiter holds one token bucket per client. Clients are keyed by remote IP,
// or by bearer token when tokens are verified upstream. Buckets expire after clientTTL.
type RateLimiter struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	limiters *cache.LRU[string, *rate.Limiter]
}

// NewRateLimiter creates a limiter allowing rps requests per second with the given burst.
func NewRateLimiter(rps float64, burst int) (*RateLimiter, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rate limit: rps and burst must be positive, got %g/%d", rps, burst)
	}
	lru, err := cache.NewLRU[string, *rate.Limiter]("ratelimit", maxTrackedClients, clientTTL)
	if err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return &RateLimiter{rps: rate.Limit(rps), burst: burst, limiters: lru}, nil
}

// Allow reports whether client may proceed now.
func (l *RateLimiter) Allow(client string) bool {
	return l.limiter(client).Allow()
}

func (l *RateLimiter) limiter(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters.Get(client); ok {
		return lim
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	l.limiters.Set(client, lim)
	return lim
}

// Middleware rejects over-limit requests with 429. A nil limiter passes everything through.
// keyByToken must only be set when the auth middleware runs first; otherwise a
// client could mint a fresh bucket per request with made-up tokens.
func (l *RateLimiter) Middleware(keyByToken bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		retryAfter := strconv.Itoa(int(math.Ceil(1 / float64(l.rps))))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			if !l.Allow(clientKey(r, keyByToken)) {
				w.Header().Set("Retry-After", retryAfter)
				writeError(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request, byToken bool) string {
	if auth := r.Header.Get("Authorization"); byToken && strings.HasPrefix(auth, bearerPrefix) {
		return "key:" + auth[len(bearerPrefix):]
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
