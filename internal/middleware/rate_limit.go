package middleware

import (
	"net/http"
	"strings"
	"sync"

	"skystream/internal/logging"
	"skystream/internal/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const rateLimitMessage = "Too many requests. Please try again later."

func skipRateLimit(path string) bool {
	return strings.HasSuffix(path, "/health")
}

// RateLimitMiddleware - общий лимит на весь API, поверх лимитов по IP
func RateLimitMiddleware(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Пропускаем health-check
		if skipRateLimit(c.Request.URL.Path) {
			c.Next()
			return
		}

		if !limiter.Allow() {
			logging.Warn().Str("ip", c.ClientIP()).Str("path", c.Request.URL.Path).Msg("Rate limit exceeded")
			abortTooManyRequests(c)
			return
		}

		c.Next()
	}
}

// IPRateLimiter - отдельный лимитер на каждый IP
type IPRateLimiter struct {
	ips map[string]*rate.Limiter
	mu  sync.Mutex
	r   rate.Limit
	b   int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*rate.Limiter),
		r:   r,
		b:   b,
	}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = limiter
	}
	return limiter
}

func IPRateLimitMiddleware(ipLimiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipRateLimit(c.Request.URL.Path) {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		if !ipLimiter.GetLimiter(clientIP).Allow() {
			logging.Warn().Str("ip", clientIP).Str("path", c.Request.URL.Path).Msg("Rate limit exceeded for IP")
			abortTooManyRequests(c)
			return
		}

		c.Next()
	}
}

func abortTooManyRequests(c *gin.Context) {
	response.Error(c, http.StatusTooManyRequests, rateLimitMessage)
}
