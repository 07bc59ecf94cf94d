package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/abhishek622/careerflow/internal/auth"
	"github.com/abhishek622/careerflow/internal/gateway"
	"github.com/abhishek622/careerflow/internal/handler"
	"github.com/abhishek622/careerflow/pkg/response"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func (app *application) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := verifyClaimsFromAuthHeader(c, app.TokenMaker)
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}

		// Check if user still exists
		ctx := gateway.WithUser(c.Request.Context(), claims.UserID)
		if _, err := app.Gateway.CurrentUser(ctx); err != nil {
			response.Unauthorized(c, "Unauthorized access")
			return
		}

		c.Request = c.Request.WithContext(ctx)
		c.Set("claims", claims)
		c.Set(handler.UserIDKey, claims.UserID)
		c.Next()
	}
}

func verifyClaimsFromAuthHeader(c *gin.Context, tokenMaker *auth.JWTMaker) (*auth.UserClaims, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("authorization header is missing")
	}

	fields := strings.Fields(authHeader)
	if len(fields) != 2 || fields[0] != "Bearer" {
		return nil, fmt.Errorf("invalid authorization header")
	}

	token := fields[1]
	claims, err := tokenMaker.VerifyToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	return claims, nil
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client IP and forgets clients
// idle for longer than ttl.
type clientLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	ttl      time.Duration
	// lastSweep is when idle visitors were last dropped.
	lastSweep time.Time
}

func newClientLimiter(rps float64, burst int, ttl time.Duration) *clientLimiter {
	return &clientLimiter{
		visitors: map[string]*visitor{},
		rps:      rate.Limit(rps),
		burst:    burst,
		ttl:      ttl,
	}
}

func (l *clientLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) >= l.ttl {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.ttl {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (app *application) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !app.Config.Limiter.Enabled {
			c.Next()
			return
		}
		if !app.limiter.allow(c.ClientIP(), time.Now()) {
			response.TooManyRequests(c, "")
			return
		}
		c.Next()
	}
}
