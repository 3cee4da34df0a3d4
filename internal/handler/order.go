package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/premarket/internal/model"
)

func (h *TradingHandler) PlaceOrder(c *gin.Context) {
	var req model.SignedOrderRequest
	if !bind(c, &req) {
		return
	}
	call, ok := h.call(c, h.engine.ID(), "place_order")
	if !ok {
		return
	}
	rec, err := h.engine.PlaceOrder(c.Request.Context(), call, req.Order, req.Signature)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, newOrderView(rec))
}

func (h *TradingHandler) CancelOrder(c *gin.Context) {
	var req model.SignedOrderRequest
	if !bind(c, &req) {
		return
	}
	call, ok := h.call(c, h.engine.ID(), "cancel_order")
	if !ok {
		return
	}
	rec, err := h.engine.CancelOrder(c.Request.Context(), call, req.Order, req.Signature)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newOrderView(rec))
}

func (h *TradingHandler) ExpireOrder(c *gin.Context) {
	key, ok := hashParam(c, "key")
	if !ok {
		return
	}
	call, ok := h.call(c, h.engine.ID(), "expire_order")
	if !ok {
		return
	}
	rec, err := h.engine.ExpireOrder(c.Request.Context(), call, key)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newOrderView(rec))
}

func (h *TradingHandler) GetOrder(c *gin.Context) {
	key, ok := hashParam(c, "key")
	if !ok {
		return
	}
	rec, err := h.engine.Order(c.Request.Context(), key)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newOrderView(rec))
}
