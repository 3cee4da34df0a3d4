package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/premarket/internal/host"
	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/trading"
)

// TradingHandler serves markets, trading admin, orders and trades.
type TradingHandler struct {
	caller
	engine *trading.Engine
}

func NewTradingHandler(engine *trading.Engine, clock host.Clock) *TradingHandler {
	return &TradingHandler{caller: caller{clock: clock}, engine: engine}
}

func (h *TradingHandler) CreateMarket(c *gin.Context) {
	var req model.CreateMarketRequest
	if !bind(c, &req) {
		return
	}
	call, ok := h.call(c, h.engine.ID(), "create_token_market")
	if !ok {
		return
	}
	m, err := h.engine.CreateMarket(c.Request.Context(), call, req.Symbol, req.Name, req.SettleTimeLimit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *TradingHandler) GetMarket(c *gin.Context) {
	id, ok := addressParam(c, "id")
	if !ok {
		return
	}
	m, err := h.engine.Market(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *TradingHandler) MapToken(c *gin.Context) {
	id, ok := addressParam(c, "id")
	if !ok {
		return
	}
	var req model.MapTokenRequest
	if !bind(c, &req) {
		return
	}
	call, ok := h.call(c, h.engine.ID(), "map_token")
	if !ok {
		return
	}
	m, err := h.engine.MapToken(c.Request.Context(), call, id, req.Token)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *TradingHandler) UpdateEconomic(c *gin.Context) {
	var req model.EconomicPolicy
	if !bind(c, &req) {
		return
	}
	call, ok := h.call(c, h.engine.ID(), "update_economic_config")
	if !ok {
		return
	}
	if err := h.engine.UpdateEconomicPolicy(c.Request.Context(), call, req); err != nil {
		_ = c.Error(err)
		return
	}
	h.config(c)
}

func (h *TradingHandler) UpdateTechnical(c *gin.Context) {
	var req model.TechnicalPolicy
	if !bind(c, &req) {
		return
	}
	call, ok := h.call(c, h.engine.ID(), "update_technical_config")
	if !ok {
		return
	}
	if err := h.engine.UpdateTechnicalPolicy(c.Request.Context(), call, req); err != nil {
		_ = c.Error(err)
		return
	}
	h.config(c)
}

func (h *TradingHandler) AddRelayer(c *gin.Context) {
	var req model.AddressRequest
	if !bind(c, &req) {
		return
	}
	call, ok := h.call(c, h.engine.ID(), "add_relayer")
	if !ok {
		return
	}
	if err := h.engine.AddRelayer(c.Request.Context(), call, req.Address); err != nil {
		_ = c.Error(err)
		return
	}
	h.config(c)
}

func (h *TradingHandler) RemoveRelayer(c *gin.Context) {
	id, ok := addressParam(c, "id")
	if !ok {
		return
	}
	call, ok := h.call(c, h.engine.ID(), "remove_relayer")
	if !ok {
		return
	}
	if err := h.engine.RemoveRelayer(c.Request.Context(), call, id); err != nil {
		_ = c.Error(err)
		return
	}
	h.config(c)
}

func (h *TradingHandler) Pause(c *gin.Context) {
	call, ok := h.call(c, h.engine.ID(), "pause")
	if !ok {
		return
	}
	if err := h.engine.Pause(c.Request.Context(), call); err != nil {
		_ = c.Error(err)
		return
	}
	h.config(c)
}

func (h *TradingHandler) Unpause(c *gin.Context) {
	call, ok := h.call(c, h.engine.ID(), "unpause")
	if !ok {
		return
	}
	if err := h.engine.Unpause(c.Request.Context(), call); err != nil {
		_ = c.Error(err)
		return
	}
	h.config(c)
}

func (h *TradingHandler) Config(c *gin.Context) {
	h.config(c)
}

func (h *TradingHandler) config(c *gin.Context) {
	cfg, err := h.engine.Config(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
