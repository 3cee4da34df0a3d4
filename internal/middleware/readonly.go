package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
)

// ReadOnlyMiddleware lets only queries through. The vault and trading pause
// endpoints stay reachable so an operator can still halt the system.
func ReadOnlyMiddleware(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		switch c.FullPath() {
		case "/v1/vault/pause", "/v1/trading/pause":
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
		default:
			_ = c.Error(apperrors.ErrReadOnly)
			c.Abort()
		}
	}
}
