package middleware

import (
	"github.com/medref/revision-service/pkg/app"
	"github.com/medref/revision-service/pkg/code"
	"github.com/medref/revision-service/pkg/limiter"

	"github.com/gin-gonic/gin"
)

// RateLimiter rejects requests once the route's bucket is empty; routes without a rule pass through
// RateLimiter 路由令牌桶耗尽时拒绝请求，未配置规则的路由直接放行
func RateLimiter(l limiter.Face) gin.HandlerFunc {
	return func(c *gin.Context) {
		if bucket, ok := l.GetBucket(l.Key(c)); ok && bucket.TakeAvailable(1) == 0 {
			app.NewResponse(c).ToResponse(code.ErrorTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
