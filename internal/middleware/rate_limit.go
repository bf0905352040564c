package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"taskbounty/portal/internal/constants"
)

// RateLimiter keeps one token bucket per client IP. Buckets idle for ten
// minutes are dropped.
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	limiters *cache.Cache
	allowed  map[string]bool
}

func NewRateLimiter(rps float64, burst int, whitelist ...string) *RateLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 5
	}
	allowed := make(map[string]bool, len(whitelist))
	for _, ip := range whitelist {
		allowed[ip] = true
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		limiters: cache.New(10*time.Minute, 10*time.Minute),
		allowed:  allowed,
	}
}

func (rl *RateLimiter) limiter(ip string) *rate.Limiter {
	if v, found := rl.limiters.Get(ip); found {
		rl.limiters.Set(ip, v, cache.DefaultExpiration)
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(rl.rps, rl.burst)
	if err := rl.limiters.Add(ip, l, cache.DefaultExpiration); err != nil {
		// lost a race with another request from the same client
		if v, found := rl.limiters.Get(ip); found {
			return v.(*rate.Limiter)
		}
	}
	return l
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if rl.allowed[ip] {
			next.ServeHTTP(w, r)
			return
		}

		if !rl.limiter(ip).Allow() {
			Logger(r.Context()).Warnw("Rate limit exceeded", "ip", ip, "path", r.URL.Path)
			http.Error(w, constants.MsgTooManyRequests, http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
