package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/service"
)

func RateLimitMiddleware(pm *service.PrincipalManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 必须在 AuthMiddleware 之后使用
		p := Principal(c)
		if p == nil {
			_ = c.Error(apperrors.ErrMissingAPIKey)
			c.Abort()
			return
		}

		limiter := pm.Limiter(p.ID)
		if limiter == nil {
			c.Next()
			return
		}

		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			_ = c.Error(apperrors.ErrRateLimited)
			c.Abort()
			return
		}

		c.Next()
	}
}
