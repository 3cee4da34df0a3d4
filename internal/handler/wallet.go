package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/premarket/internal/bank"
	"github.com/GoPolymarket/premarket/internal/middleware"
	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/pkg/logger"
	"github.com/GoPolymarket/premarket/internal/store"
)

// WalletHandler exposes raw token holdings outside the ledger, plus the
// dev faucet when it is enabled.
type WalletHandler struct {
	store     store.Store
	bank      *bank.StoreBank
	faucetMax uint64
}

func NewWalletHandler(st store.Store, tb *bank.StoreBank, faucetMax uint64) *WalletHandler {
	return &WalletHandler{store: st, bank: tb, faucetMax: faucetMax}
}

func (h *WalletHandler) Holding(c *gin.Context) {
	token, ok := addressParam(c, "token")
	if !ok {
		return
	}
	owner, ok := addressParam(c, "owner")
	if !ok {
		return
	}
	var amount uint64
	err := h.store.View(c.Request.Context(), func(tx store.Tx) error {
		var err error
		amount, err = h.bank.BalanceOf(tx, token, owner)
		return err
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, bank.Holding{Token: token, Owner: owner, Amount: amount})
}

// Faucet mints tokens to the calling principal's address.
func (h *WalletHandler) Faucet(c *gin.Context) {
	var req model.AmountRequest
	if !bind(c, &req) {
		return
	}
	if req.Amount > h.faucetMax {
		_ = c.Error(apperrors.NewInvalidRequest("amount exceeds faucet limit"))
		return
	}
	p := middleware.Principal(c)
	var amount uint64
	err := h.store.Update(c.Request.Context(), func(tx store.Tx) error {
		if err := h.bank.Mint(tx, req.Token, p.Address, req.Amount); err != nil {
			return err
		}
		var err error
		amount, err = h.bank.BalanceOf(tx, req.Token, p.Address)
		return err
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	logger.Info("faucet mint", "principal", p.ID, "token", req.Token.Hex(), "amount", req.Amount)
	c.JSON(http.StatusOK, bank.Holding{Token: req.Token, Owner: p.Address, Amount: amount})
}
