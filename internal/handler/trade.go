package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/trading"
)

func (h *TradingHandler) Match(c *gin.Context) {
	var req model.MatchOrdersRequest
	if !bind(c, &req) {
		return
	}
	call, ok := h.call(c, h.engine.ID(), "match_orders")
	if !ok {
		return
	}
	trade, err := h.engine.Match(c.Request.Context(), call, trading.MatchRequest{
		Buy:     req.Buy,
		BuySig:  req.BuySignature,
		Sell:    req.Sell,
		SellSig: req.SellSignature,
		Fill:    req.Fill,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, newTradeView(trade))
}

func (h *TradingHandler) Settle(c *gin.Context) {
	call, ok := h.call(c, h.engine.ID(), "settle_trade")
	if !ok {
		return
	}
	trade, err := h.engine.Settle(c.Request.Context(), call, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newTradeView(trade))
}

func (h *TradingHandler) CancelTrade(c *gin.Context) {
	call, ok := h.call(c, h.engine.ID(), "cancel_trade")
	if !ok {
		return
	}
	trade, err := h.engine.CancelTrade(c.Request.Context(), call, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newTradeView(trade))
}

func (h *TradingHandler) GetTrade(c *gin.Context) {
	trade, err := h.engine.Trade(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newTradeView(trade))
}
