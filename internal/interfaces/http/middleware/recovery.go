// Package middleware 提供 HTTP 中间件
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"odyscribe-api/internal/interfaces/http/dto"
	"odyscribe-api/pkg/logger"
)

// Recovery 捕获处理器 panic，记录堆栈并返回统一的 500 响应
// 响应头已写出（例如音频流中途）时只中断请求。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error(c.Request.Context(), "panic recovered",
				fmt.Errorf("%v", rec),
				"stack", string(debug.Stack()),
				"route", c.FullPath(),
				"method", c.Request.Method,
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			dto.AbortError(c, http.StatusInternalServerError, "Internal server error")
		}()

		c.Next()
	}
}
