package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"

	apperrors "github.com/tandemlab/converse/errors"
	"github.com/tandemlab/converse/resilience"
)

// RateLimitConfig configures per-client request limiting.
type RateLimitConfig struct {
	// Rate is the sustained number of requests allowed per second per
	// client. Zero disables the middleware.
	Rate float64 `yaml:"rate" mapstructure:"rate"`
	// Burst is the number of requests a client may send at once.
	Burst int `yaml:"burst" mapstructure:"burst"`
	// KeyFunc extracts the limit key from a request. Defaults to client IP.
	KeyFunc func(*gin.Context) string `yaml:"-" mapstructure:"-"`
}

// RateLimit returns a middleware that applies a per-client token bucket.
// Audio frame uploads arrive at a steady cadence, so a bucket sized for
// the frame rate plus a burst absorbs jitter without letting one client
// flood the recognizer.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}

	limiters := &clientLimiters{
		byKey: make(map[string]*resilience.RateLimiter),
		rate:  cfg.Rate,
		burst: cfg.Burst,
	}

	return func(c *gin.Context) {
		if !limiters.get(cfg.KeyFunc(c)).Allow() {
			appErr := apperrors.RateLimited()
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		c.Next()
	}
}

type clientLimiters struct {
	mu    sync.Mutex
	byKey map[string]*resilience.RateLimiter
	rate  float64
	burst int
}

func (l *clientLimiters) get(key string) *resilience.RateLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl, ok := l.byKey[key]
	if !ok {
		rl = resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Name:  key,
			Rate:  l.rate,
			Burst: l.burst,
		})
		l.byKey[key] = rl
	}
	return rl
}
