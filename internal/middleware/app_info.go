package middleware

import (
	"github.com/gin-gonic/gin"
)

const (
	HeaderAppName    = "X-App-Name"
	HeaderAppVersion = "X-App-Version"
)

// AppInfoWithConfig 在响应头中写入应用名称与版本
func AppInfoWithConfig(name, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header(HeaderAppName, name)
		c.Header(HeaderAppVersion, version)
		c.Next()
	}
}
