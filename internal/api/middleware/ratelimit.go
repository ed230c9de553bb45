package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"lora-lending/internal/config"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware applies a token bucket per client IP.
type RateLimiterMiddleware struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	cfg      config.RateLimitConfig
	logger   *slog.Logger
	stop     chan struct{}
	once     sync.Once
}

func NewRateLimiterMiddleware(cfg config.RateLimitConfig, logger *slog.Logger) *RateLimiterMiddleware {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	rl := &RateLimiterMiddleware{
		visitors: make(map[string]*visitor),
		cfg:      cfg,
		logger:   logger.With("component", "RateLimiter"),
		stop:     make(chan struct{}),
	}

	if cfg.Enabled {
		rl.logger.Info("Rate limiter configured", "rps", cfg.RPS, "burst", cfg.Burst)
		go rl.cleanupVisitors(limiterIdleTTL)
	}
	return rl
}

// Close stops the background cleanup.
func (rl *RateLimiterMiddleware) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiterMiddleware) getLimiter(ip string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RPS), rl.cfg.Burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (rl *RateLimiterMiddleware) evictIdle(now time.Time, ttl time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	evicted := 0
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > ttl {
			delete(rl.visitors, ip)
			evicted++
		}
	}
	return evicted
}

func (rl *RateLimiterMiddleware) cleanupVisitors(ttl time.Duration) {
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			if n := rl.evictIdle(now, ttl); n > 0 {
				rl.logger.Debug("Evicted idle rate limiters", "count", n)
			}
		}
	}
}

func (rl *RateLimiterMiddleware) extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xRealIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); xRealIP != "" && net.ParseIP(xRealIP) != nil {
		return xRealIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.extractIP(r)
		if !rl.getLimiter(ip, time.Now()).Allow() {
			rl.logger.Warn("Rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{
					"message": fmt.Sprintf("Rate limit exceeded. Limit is %g requests per second.", rl.cfg.RPS),
				},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
