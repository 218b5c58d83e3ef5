package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/apnisec/backend/internal/apperr"
	"github.com/apnisec/backend/internal/model"
	"github.com/apnisec/backend/internal/service"
)

const authUserKey = "auth_user"

// rejection is the early-exit half of the authenticate/authorize result:
// either a principal comes back, or a status and message to abort with.
type rejection struct {
	status  int
	message string
}

// Middleware owns the per-request pipeline: rate limit, then authentication,
// then optional role authorization.
type Middleware struct {
	auth    *service.AuthService
	limiter *service.RateLimiter
	logger  *zap.Logger
}

func NewMiddleware(auth *service.AuthService, limiter *service.RateLimiter, logger *zap.Logger) *Middleware {
	return &Middleware{auth: auth, limiter: limiter, logger: logger}
}

// PipelineOptions configures one route's wrapping. The zero value is not
// useful; DefaultPipeline returns the common case (auth required, no role
// restriction, rate limiting on).
type PipelineOptions struct {
	RequireAuth bool
	Roles       []string
	RateLimit   bool
}

func DefaultPipeline() PipelineOptions {
	return PipelineOptions{RequireAuth: true, RateLimit: true}
}

// Pipeline wraps a route with the configured checks. Rate limiting runs
// first so unauthenticated floods are rejected before any token work. On
// success the response carries X-RateLimit-* headers computed from a second
// counter check; the double accounting is deliberate and matches the limiter's
// documented behaviour.
func (m *Middleware) Pipeline(opts PipelineOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.RateLimit {
			identity, userID := m.identity(c)
			result := m.limiter.CheckLimit(c.Request.Context(), identity, userID)
			if !result.Allowed {
				writeError(c, m.logger, apperr.RateLimit("Too many requests, please try again later",
					result.Limit, result.Remaining, result.ResetTime, result.RetryAfter))
				c.Abort()
				return
			}
		}

		if opts.RequireAuth {
			user, rej := m.authorize(c, opts.Roles)
			if rej != nil {
				c.AbortWithStatusJSON(rej.status, model.ErrorResponse{
					Error:      rej.message,
					StatusCode: rej.status,
				})
				return
			}
			c.Set(authUserKey, user)
		}

		if opts.RateLimit {
			identity, userID := m.identity(c)
			result := m.limiter.CheckLimit(c.Request.Context(), identity, userID)
			remaining := result.Remaining - 1
			if remaining < 0 {
				remaining = 0
			}
			setRateLimitHeaders(c, result.Limit, remaining, result.ResetTime)
		}

		c.Next()
	}
}

// authenticate resolves the bearer token to a principal, or explains why it
// cannot. Expired and malformed tokens are indistinguishable to the client;
// the difference is logged only.
func (m *Middleware) authenticate(c *gin.Context) (*model.User, *rejection) {
	token, ok := extractBearerToken(c.GetHeader("Authorization"))
	if !ok {
		return nil, &rejection{http.StatusUnauthorized, "No authentication token provided"}
	}

	if _, err := m.auth.VerifyToken(token); err != nil {
		m.logger.Debug("access token rejected", zap.Error(err))
		return nil, &rejection{http.StatusUnauthorized, "Invalid or expired token"}
	}

	user := m.auth.UserFromToken(c.Request.Context(), token)
	if user == nil {
		return nil, &rejection{http.StatusUnauthorized, "User not found"}
	}

	return user, nil
}

// authorize authenticates and then checks the role allow-list. An empty list
// means no role restriction, only authentication.
func (m *Middleware) authorize(c *gin.Context, roles []string) (*model.User, *rejection) {
	user, rej := m.authenticate(c)
	if rej != nil {
		return nil, rej
	}

	if len(roles) == 0 {
		return user, nil
	}
	for _, role := range roles {
		if user.Role == role {
			return user, nil
		}
	}
	return nil, &rejection{http.StatusForbidden, "Insufficient permissions"}
}

// identity keys the rate limiter: user:<id> when a valid bearer token
// resolves, otherwise ip:<address>.
func (m *Middleware) identity(c *gin.Context) (string, *string) {
	if token, ok := extractBearerToken(c.GetHeader("Authorization")); ok {
		if user := m.auth.UserFromToken(c.Request.Context(), token); user != nil {
			return "user:" + user.ID, &user.ID
		}
	}
	return "ip:" + c.ClientIP(), nil
}

// extractBearerToken accepts only the exact shape "Bearer <token>": two
// space-separated parts, the first literally "Bearer". Anything else counts
// as no token at all.
func extractBearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setRateLimitHeaders(c *gin.Context, limit, remaining int, resetTime int64) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime, 10))
}

// CurrentUser returns the principal the pipeline attached, or nil on
// unauthenticated routes.
func CurrentUser(c *gin.Context) *model.User {
	if value, ok := c.Get(authUserKey); ok {
		if user, ok := value.(*model.User); ok {
			return user
		}
	}
	return nil
}

// RequestLogger logs each request with latency and request ID metadata.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := strings.TrimSpace(c.Request.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}

		switch {
		case status >= 500:
			logger.Error("http_request", fields...)
		case status >= 400:
			logger.Warn("http_request", fields...)
		default:
			logger.Info("http_request", fields...)
		}
	}
}

// CORSMiddleware allows the configured browser origins.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := originMap[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				c.Header("Access-Control-Allow-Credentials", "true")
				c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
