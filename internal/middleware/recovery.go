package middleware

import (
	"fmt"

	"github.com/haierkeys/novel-sync-service/pkg/app"
	"github.com/haierkeys/novel-sync-service/pkg/code"
	"github.com/haierkeys/novel-sync-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryWithLogger handler panic 时记录堆栈并返回 ErrorServerInternal
func RecoveryWithLogger(lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			msg := fmt.Sprint(r)
			lg.Error("Recovered from panic",
				zap.String("router", c.Request.URL.Path),
				zap.String(logger.FieldMethod, c.Request.Method),
				zap.String("query", c.Request.URL.RawQuery),
				zap.String("ip", c.ClientIP()),
				zap.String(logger.FieldTraceID, GetTraceIDFromGin(c)),
				zap.String("panic_value", msg),
				zap.Stack("stack"),
			)
			app.NewResponse(c).ToResponse(code.ErrorServerInternal.WithDetails(msg))
			c.Abort()
		}()
		c.Next()
	}
}
