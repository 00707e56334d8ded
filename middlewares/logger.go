package middlewares

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequestLogger is gin's access logger with credentials stripped from the
// logged query string.
func RequestLogger(out io.Writer) gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: logFormatter,
		Output:    out,
	})
}

func logFormatter(param gin.LogFormatterParams) string {
	return fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s %#v\n%s",
		param.TimeStamp.Format("2006/01/02 - 15:04:05"),
		param.StatusCode,
		param.Latency,
		param.ClientIP,
		param.Method,
		redactQuery(param.Path),
		param.ErrorMessage,
	)
}

// redactQuery masks the token parameter that websocket clients send in the URL.
func redactQuery(path string) string {
	base, raw, found := strings.Cut(path, "?")
	if !found {
		return path
	}
	query, err := url.ParseQuery(raw)
	if err != nil {
		return base
	}
	if _, ok := query["token"]; ok {
		query.Set("token", "REDACTED")
	}
	return base + "?" + query.Encode()
}
