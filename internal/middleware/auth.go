package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/premarket/internal/config"
	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/service"
)

const (
	HeaderAPIKey        = "X-Api-Key"
	ContextPrincipalKey = "principal"
)

func AuthMiddleware(cfg *config.Config, pm *service.PrincipalManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(HeaderAPIKey)
		if apiKey == "" {
			if cfg != nil && !cfg.Auth.RequireAPIKey {
				if p := pm.Fallback(); p != nil {
					c.Set(ContextPrincipalKey, p)
					c.Next()
					return
				}
			}
			_ = c.Error(apperrors.ErrMissingAPIKey)
			c.Abort()
			return
		}

		p, ok := pm.ByAPIKey(apiKey)
		if !ok {
			_ = c.Error(apperrors.ErrInvalidAPIKey)
			c.Abort()
			return
		}

		// 将调用方信息存入上下文
		c.Set(ContextPrincipalKey, p)
		c.Next()
	}
}

// Principal returns the authenticated caller, or nil before AuthMiddleware ran.
func Principal(c *gin.Context) *model.Principal {
	v, ok := c.Get(ContextPrincipalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*model.Principal)
	return p
}
