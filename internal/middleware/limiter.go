package middleware

import (
	"github.com/haierkeys/novel-sync-service/pkg/app"
	"github.com/haierkeys/novel-sync-service/pkg/code"
	"github.com/haierkeys/novel-sync-service/pkg/limiter"

	"github.com/gin-gonic/gin"
)

// RateLimiter 按 l.Key 找到令牌桶并取一个令牌，取不到时返回 ErrorTooManyRequests
// 没有对应令牌桶的路由不限流
func RateLimiter(l limiter.Face) gin.HandlerFunc {
	return func(c *gin.Context) {
		bucket, ok := l.GetBucket(l.Key(c))
		if ok && bucket.TakeAvailable(1) == 0 {
			app.NewResponse(c).ToResponse(code.ErrorTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
