package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/mall/pkg/tracing"
)

const httpTracerName = "mall-http"

// Tracing 为每个请求创建Server Span，并把带Span的ctx写回Request
// 下游的百度调用、入库子Span都挂在这个Span下
func Tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := tracing.StartServerSpan(c.Request.Context(), c.Request.Header, httpTracerName, c.Request.Method+" "+route)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)

		var err error
		if status >= 500 {
			err = fmt.Errorf("HTTP %d", status)
			if len(c.Errors) > 0 {
				err = fmt.Errorf("HTTP %d: %s", status, c.Errors.String())
			}
		}
		tracing.EndSpan(span, err)
	}
}
