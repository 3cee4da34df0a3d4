package handler

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/premarket/internal/host"
	"github.com/GoPolymarket/premarket/internal/middleware"
	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
)

// caller turns an authenticated request into the host context an
// operation runs under: signed by the principal's address, at the trusted
// clock's time, as a top-level instruction into module.
type caller struct {
	clock host.Clock
}

func (h caller) call(c *gin.Context, module common.Address, op string) (host.Call, bool) {
	p := middleware.Principal(c)
	if p == nil {
		_ = c.Error(apperrors.ErrMissingAPIKey)
		return host.Call{}, false
	}
	return host.Call{
		Signer: p.Address,
		Now:    h.clock.Now(),
		Chain:  host.Invoke(module, op),
	}, true
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(apperrors.NewInvalidRequest(err.Error()))
		return false
	}
	return true
}

func addressParam(c *gin.Context, name string) (common.Address, bool) {
	raw := c.Param(name)
	if !common.IsHexAddress(raw) {
		_ = c.Error(apperrors.NewInvalidRequest(name + " must be a hex address"))
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

func hashParam(c *gin.Context, name string) (common.Hash, bool) {
	raw := c.Param(name)
	b, err := hexBytes(raw)
	if err != nil || len(b) != common.HashLength {
		_ = c.Error(apperrors.NewInvalidRequest(name + " must be a 32-byte hex hash"))
		return common.Hash{}, false
	}
	return common.BytesToHash(b), true
}
