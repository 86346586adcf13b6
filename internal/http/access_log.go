package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mrlokans/matjip/internal/auth"
	"github.com/mrlokans/matjip/internal/logging"
)

// accessLog logs one line per request. Errors attached with c.Error are
// included and raise the level to error.
func accessLog(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration(logging.FieldDuration, time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if uid := auth.GetUserID(c); uid != "" {
			fields = append(fields, zap.String(logging.FieldUserID, uid))
		}

		level := zapcore.InfoLevel
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			fields = append(fields, zap.String("errors", errs.String()))
			level = zapcore.ErrorLevel
		}
		if ce := logger.Check(level, "request"); ce != nil {
			ce.Write(fields...)
		}
	}
}
