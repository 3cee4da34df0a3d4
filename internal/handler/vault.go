package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/premarket/internal/host"
	"github.com/GoPolymarket/premarket/internal/ledger"
	"github.com/GoPolymarket/premarket/internal/model"
)

type VaultHandler struct {
	caller
	vault *ledger.Vault
}

func NewVaultHandler(vault *ledger.Vault, clock host.Clock) *VaultHandler {
	return &VaultHandler{caller: caller{clock: clock}, vault: vault}
}

func (h *VaultHandler) Deposit(c *gin.Context) {
	var req model.AmountRequest
	if !bind(c, &req) {
		return
	}
	call, ok := h.call(c, h.vault.ID(), "deposit")
	if !ok {
		return
	}
	bal, err := h.vault.Deposit(c.Request.Context(), call, req.Token, req.Amount)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, bal)
}

func (h *VaultHandler) Withdraw(c *gin.Context) {
	var req model.AmountRequest
	if !bind(c, &req) {
		return
	}
	call, ok := h.call(c, h.vault.ID(), "withdraw")
	if !ok {
		return
	}
	bal, err := h.vault.Withdraw(c.Request.Context(), call, req.Token, req.Amount)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, bal)
}

func (h *VaultHandler) AddCaller(c *gin.Context) {
	var req model.AddressRequest
	if !bind(c, &req) {
		return
	}
	call, ok := h.call(c, h.vault.ID(), "add_authorized_caller")
	if !ok {
		return
	}
	if err := h.vault.AddCaller(c.Request.Context(), call, req.Address); err != nil {
		_ = c.Error(err)
		return
	}
	h.config(c)
}

func (h *VaultHandler) RemoveCaller(c *gin.Context) {
	id, ok := addressParam(c, "id")
	if !ok {
		return
	}
	call, ok := h.call(c, h.vault.ID(), "remove_authorized_caller")
	if !ok {
		return
	}
	if err := h.vault.RemoveCaller(c.Request.Context(), call, id); err != nil {
		_ = c.Error(err)
		return
	}
	h.config(c)
}

func (h *VaultHandler) Pause(c *gin.Context) {
	call, ok := h.call(c, h.vault.ID(), "pause")
	if !ok {
		return
	}
	if err := h.vault.Pause(c.Request.Context(), call); err != nil {
		_ = c.Error(err)
		return
	}
	h.config(c)
}

func (h *VaultHandler) Unpause(c *gin.Context) {
	call, ok := h.call(c, h.vault.ID(), "unpause")
	if !ok {
		return
	}
	if err := h.vault.Unpause(c.Request.Context(), call); err != nil {
		_ = c.Error(err)
		return
	}
	h.config(c)
}

func (h *VaultHandler) Config(c *gin.Context) {
	h.config(c)
}

func (h *VaultHandler) config(c *gin.Context) {
	cfg, err := h.vault.Config(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *VaultHandler) Balance(c *gin.Context) {
	token, ok := addressParam(c, "token")
	if !ok {
		return
	}
	owner, ok := addressParam(c, "owner")
	if !ok {
		return
	}
	bal, err := h.vault.Balance(c.Request.Context(), owner, token)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, bal)
}

func (h *VaultHandler) Custody(c *gin.Context) {
	token, ok := addressParam(c, "token")
	if !ok {
		return
	}
	custody, err := h.vault.Custody(c.Request.Context(), token)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, custody)
}

func (h *VaultHandler) Solvency(c *gin.Context) {
	token, ok := addressParam(c, "token")
	if !ok {
		return
	}
	report, err := h.vault.CheckSolvency(c.Request.Context(), token)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, report)
}
