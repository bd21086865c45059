package middleware

import (
	"github.com/haierkeys/block-note-service/pkg/app"
	"github.com/haierkeys/block-note-service/pkg/code"
	"github.com/haierkeys/block-note-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter creates rate limiting middleware (supports dependency injection)
// Routes without a bucket are not limited
// RateLimiter 创建限流中间件，未配置令牌桶的路由不限流
func RateLimiter(l limiter.Face, lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := l.Key(c)
		if bucket, ok := l.GetBucket(key); ok {
			if bucket.TakeAvailable(1) == 0 {
				lg.Warn("rate limited",
					zap.String("key", key),
					zap.String("ip", app.GetRequestIP(c)),
				)
				c.Header("Retry-After", "1")
				app.NewResponse(c).ToResponse(code.ErrorTooManyRequests)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
