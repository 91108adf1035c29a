// Package middleware provides the gin middleware stack: request logging,
// panic recovery, CORS, and admin-key authentication. Adapted from the
// teacher's internal/middleware/security_middleware.go (CORS/security
// headers idiom) and cmd/apiserver/main.go's router wiring, generalized
// from DomainFlow's session/campaign concerns to this system's stateless
// admin-key boundary.
package middleware

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agenceeditorial/auditengine/internal/adminauth"
	"github.com/agenceeditorial/auditengine/internal/logging"
)

// RequestID attaches a per-request UUID to the gin context and response
// header, generating one when the caller didn't supply X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// RequestLogging emits one structured JSON event per request via
// internal/logging, the teacher's sole logging idiom.
func RequestLogging(log *logging.Logger) gin.HandlerFunc {
	if log == nil {
		log = logging.Global
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http", "request", "", map[string]any{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}

// Recovery converts a panic into a 500 JSON response and logs it, instead
// of crashing the process.
func Recovery(log *logging.Logger) gin.HandlerFunc {
	if log == nil {
		log = logging.Global
	}
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("http", "panic", "", map[string]any{
					"request_id": c.GetString("request_id"),
					"recovered":  fmtRecover(r),
				})
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{"kind": "internal_error", "message": "internal server error"},
				})
			}
		}()
		c.Next()
	}
}

func fmtRecover(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return http.StatusText(http.StatusInternalServerError)
}

// AllowedOrigins returns the CORS_ORIGINS allow-list (comma-separated),
// falling back to a localhost default for local development — shared with
// internal/wsstream's websocket upgrader so both surfaces honor the same
// configured origins.
func AllowedOrigins() []string {
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		var allowed []string
		for _, o := range strings.Split(raw, ",") {
			allowed = append(allowed, strings.TrimSpace(o))
		}
		return allowed
	}
	return []string{"http://localhost:3000"}
}

// OriginAllowed reports whether origin is in AllowedOrigins().
func OriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range AllowedOrigins() {
		if origin == a {
			return true
		}
	}
	return false
}

// CORS implements the teacher's EnhancedCORS idiom: an allow-list of
// origins read from CORS_ORIGINS (comma-separated), falling back to a
// localhost default for local development.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		isAllowed := OriginAllowed(origin)
		if isAllowed {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Key, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// AdminAuth requires a valid X-Admin-Key header, verified against
// checker's configured bcrypt hash.
func AdminAuth(checker *adminauth.Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !checker.Enabled() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": gin.H{"kind": "internal_error", "message": "admin endpoints are disabled"},
			})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if err := checker.Verify(key); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"kind": "input_validation", "message": "invalid admin key"},
			})
			return
		}
		c.Next()
	}
}
