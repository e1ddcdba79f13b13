package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sessionCookie = "sid"
	sessionHeader = "X-Session-ID"
	sessionCtxKey = "storefront.session"
)

// requestLogger writes one access log line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("http: request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("http: request", fields...)
		default:
			logger.Info("http: request", fields...)
		}
	}
}

// sessionMiddleware resolves the shopper session from the sid cookie or the
// X-Session-ID header, issuing a new id when neither carries a valid one.
func sessionMiddleware(issuer sessionIssuer, ttl time.Duration, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(sessionCookie)
		if !issuer.Valid(id) {
			id = c.GetHeader(sessionHeader)
		}
		if !issuer.Valid(id) {
			id = issuer.Issue()
		}
		c.Set(sessionCtxKey, id)
		c.Header(sessionHeader, id)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, id, int(ttl.Seconds()), "/", "", secure, true)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionCtxKey)
}
