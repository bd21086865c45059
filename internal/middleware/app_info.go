package middleware

import (
	"github.com/gin-gonic/gin"
)

// AppInfo exposes name and version to handlers and as response headers
// AppInfo 向处理器和响应头写入应用名与版本
func AppInfo(name, version string) gin.HandlerFunc {

	return func(c *gin.Context) {
		c.Set("app_name", name)
		c.Set("app_version", version)
		c.Header("X-App-Version", version)

		c.Next()
	}
}
