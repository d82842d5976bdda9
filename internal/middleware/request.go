package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/org-membership-api/internal/loader"
)

// RequestScope bounds each request with a deadline and gives it its own read cache
func RequestScope(timeout, cacheTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		ctx = loader.WithLoader(ctx, loader.New(cacheTTL))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
