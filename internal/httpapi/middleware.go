package httpapi

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	subAuth "github.com/MrEthical07/subAuth"
	"github.com/MrEthical07/subAuth/middleware"
	"golang.org/x/time/rate"
)

// requestInfo puts the client IP and User-Agent on the context for sign-in
// throttling and audit entries.
func (a *API) requestInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := subAuth.WithClientIP(r.Context(), a.clientIP(r))
		ctx = subAuth.WithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) rateLimit(next http.Handler) http.Handler {
	if a.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.limiter.allow(a.clientIP(r), time.Now()) {
			w.Header().Set("Retry-After", "1")
			middleware.WriteError(w, http.StatusTooManyRequests, kindRateLimited, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) maxBody(next http.Handler) http.Handler {
	if a.opts.MaxBodyBytes <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, a.opts.MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func (a *API) clientIP(r *http.Request) string {
	if a.opts.TrustForwardedFor {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// clientLimiter keeps one token bucket per client key. Idle buckets are
// pruned at most once per ttl.
type clientLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*clientBucket
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastPrune time.Time
}

type clientBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newClientLimiter(perSecond, burst int, ttl time.Duration) *clientLimiter {
	if burst <= 0 {
		burst = perSecond
	}
	return &clientLimiter{
		buckets: make(map[string]*clientBucket),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		ttl:     ttl,
	}
}

func (c *clientLimiter) allow(key string, now time.Time) bool {
	if key == "" {
		key = "unknown"
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastPrune) > c.ttl {
		for k, b := range c.buckets {
			if now.Sub(b.seen) > c.ttl {
				delete(c.buckets, k)
			}
		}
		c.lastPrune = now
	}

	b, ok := c.buckets[key]
	if !ok {
		b = &clientBucket{lim: rate.NewLimiter(c.limit, c.burst)}
		c.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

func (c *clientLimiter) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buckets)
}
