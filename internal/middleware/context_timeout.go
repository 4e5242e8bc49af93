package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/medref/revision-service/pkg/app"
	"github.com/medref/revision-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// ContextTimeout sets a deadline on the request context; zero disables it
// ContextTimeout 为请求上下文设置超时，0 表示不限制
func ContextTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		// 处理器未输出响应且已超时
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			app.NewResponse(c).ToResponse(code.ErrorTimeout)
			c.Abort()
		}
	}
}
