// middleware/rate_limiter.go
package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/labdesk/labdesk_backend/models"
)

type endpointLimit struct {
	limit rate.Limit
	burst int
}

type RateLimiter struct {
	ips            map[string]*rate.Limiter
	blockedIPs     map[string]time.Time
	mu             sync.Mutex
	defaultLimit   rate.Limit
	defaultBurst   int
	blockDuration  time.Duration
	endpointLimits map[string]endpointLimit
	now            func() time.Time
}

func NewRateLimiter() *RateLimiter {
	otpLimit := endpointLimit{
		limit: rate.Every(20 * time.Second),
		burst: 3,
	}
	verifyLimit := endpointLimit{
		limit: rate.Every(2 * time.Second),
		burst: 5,
	}

	return &RateLimiter{
		ips:           make(map[string]*rate.Limiter),
		blockedIPs:    make(map[string]time.Time),
		defaultLimit:  rate.Every(100 * time.Millisecond), // 10 requests per second
		defaultBurst:  20,
		blockDuration: 5 * time.Minute,
		endpointLimits: map[string]endpointLimit{
			"/api/auth/send-otp":    otpLimit,
			"/api/reports/send-otp": otpLimit,
			"/api/auth/verify-otp":  verifyLimit,
			"/api/reports/download": verifyLimit,
		},
		now: time.Now,
	}
}

// StartCleanup drops expired blocks every interval until stop is closed
func (r *RateLimiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.cleanupBlockedIPs()
		}
	}
}

func (r *RateLimiter) cleanupBlockedIPs() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for ip, blockUntil := range r.blockedIPs {
		if now.After(blockUntil) {
			delete(r.blockedIPs, ip)
			delete(r.ips, ip)
		}
	}
}

func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if strings.HasPrefix(c.Request().URL.Path, "/uploads/") {
				return next(c)
			}

			path := c.Path()
			limit, burst := r.defaultLimit, r.defaultBurst
			if l, ok := r.endpointLimits[path]; ok {
				limit, burst = l.limit, l.burst
			}
			// stricter endpoints get their own bucket so browsing does not eat into it
			key := c.RealIP()
			if _, ok := r.endpointLimits[path]; ok {
				key += "|" + path
			}

			if until, blocked := r.blockedUntil(key); blocked {
				return tooManyRequests(c, until)
			}

			if !r.getLimiter(key, limit, burst).Allow() {
				until := r.now().Add(r.blockDuration)
				r.mu.Lock()
				r.blockedIPs[key] = until
				r.mu.Unlock()
				return tooManyRequests(c, until)
			}

			return next(c)
		}
	}
}

func (r *RateLimiter) blockedUntil(key string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	until, blocked := r.blockedIPs[key]
	if !blocked {
		return time.Time{}, false
	}
	if r.now().Before(until) {
		return until, true
	}
	delete(r.blockedIPs, key)
	delete(r.ips, key)
	return time.Time{}, false
}

func (r *RateLimiter) getLimiter(key string, limit rate.Limit, burst int) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, exists := r.ips[key]
	if !exists {
		limiter = rate.NewLimiter(limit, burst)
		r.ips[key] = limiter
	}
	return limiter
}

func tooManyRequests(c echo.Context, until time.Time) error {
	return c.JSON(http.StatusTooManyRequests, models.Response{
		Status:  http.StatusTooManyRequests,
		Message: "Too many requests",
		Data:    map[string]string{"retryAfter": until.Format(time.RFC3339)},
	})
}
