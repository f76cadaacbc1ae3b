package ui

import (
	"net/http"
	"time"

	"biasev/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sessionCookieName = "bia_session"
	sessionContextKey = "session_id"
)

// requestLogger logs one line per request
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("Request failed", fields...)
			return
		}
		logger.Info("Request", fields...)
	}
}

// sessionCookie assigns every browser an anonymous session identifier
func (s *Server) sessionCookie() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(sessionCookieName)
		if err != nil || !session.ValidID(id) {
			id = session.NewID()
		} else {
			s.datasets.Touch(id)
		}

		maxAge := int(s.opts.SessionTTL / time.Second)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookieName, id, maxAge, "/", "", false, true)
		c.Set(sessionContextKey, id)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionContextKey)
}
