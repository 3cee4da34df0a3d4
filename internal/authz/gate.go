package authz

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/pkg/metrics"
)

// Gate is the slice of vault state the authorization check needs.
type Gate struct {
	Paused  bool
	Callers AllowList
}

// Authorize fails with VaultPaused when the vault is paused, then with
// UnauthorizedCaller when the detected module is not allow-listed.
func (g Gate) Authorize(caller common.Address, operation string) error {
	if g.Paused {
		metrics.Rejections.WithLabelValues(apperrors.ErrVaultPaused.Code).Inc()
		return apperrors.ErrVaultPaused.Withf("%s rejected: vault is paused", operation)
	}
	if !g.Callers.Contains(caller) {
		metrics.Rejections.WithLabelValues(apperrors.ErrUnauthorizedCaller.Code).Inc()
		return apperrors.ErrUnauthorizedCaller.Withf("%s rejected: module %s is not authorized", operation, caller.Hex())
	}
	return nil
}

// Check detects the caller from the chain and authorizes it.
func (g Gate) Check(r InstructionChainReader, operation string) (common.Address, error) {
	if g.Paused {
		return common.Address{}, g.Authorize(common.Address{}, operation)
	}
	caller, err := DetectCaller(r)
	if err != nil {
		return common.Address{}, err
	}
	return caller, g.Authorize(caller, operation)
}
