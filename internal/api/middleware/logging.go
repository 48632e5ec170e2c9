package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// LogAPI emits one access-log line per request.
func LogAPI() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] | %s | %d | %s | %s | %s | %s\n",
			param.TimeStamp.Format("2006-01-02 15:04:05"),
			param.ClientIP,
			param.StatusCode,
			param.Method,
			param.Path,
			param.Latency,
			param.ErrorMessage,
		)
	})
}
