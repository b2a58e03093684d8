package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	appErrors "github.com/noah-isme/m3-catalog/pkg/errors"
	"github.com/noah-isme/m3-catalog/pkg/response"
)

// ConcurrencyLimit bounds in-flight requests. A request that cannot get a
// slot within wait is rejected with 503. A non-positive limit disables it.
func ConcurrencyLimit(limit int64, wait time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sem := semaphore.NewWeighted(limit)

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if wait > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, wait)
			defer cancel()
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				logger.Warn("request pool exhausted", zap.String("path", c.Request.URL.Path), zap.Int64("limit", limit))
			}
			response.Error(c, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "too many concurrent requests"))
			c.Abort()
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
