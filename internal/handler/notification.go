package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/pkg/logger"
	"github.com/GoPolymarket/premarket/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	readWait   = pingPeriod + 10*time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// API keys gate the route; browsers on any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type NotificationHandler struct {
	svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		_ = c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	records, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(apperrors.New(apperrors.ErrInternal, err.Error(), err))
		return
	}
	c.JSON(http.StatusOK, records)
}

// Stream upgrades to a websocket and pushes every matching notification as
// a JSON text frame until the client goes away.
func (h *NotificationHandler) Stream(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		_ = c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	// subscribed before the handshake completes so nothing published after
	// the client sees the upgrade is missed
	ch, cancel := h.svc.Subscribe(256)
	defer cancel()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// the reader only watches for close frames and pongs
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			return
		case n, open := <-ch:
			if !open {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
				return
			}
			if !filter.Match(n) {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(n); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func parseFilter(c *gin.Context) (model.NotificationFilter, error) {
	filter := model.NotificationFilter{Limit: 100, Operation: c.Query("operation")}
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid limit")
		}
		filter.Limit = parsed
	}
	if raw := c.Query("module"); raw != "" {
		if !common.IsHexAddress(raw) {
			return filter, fmt.Errorf("invalid module address")
		}
		m := common.HexToAddress(raw)
		filter.Module = &m
	}
	if raw := c.Query("from"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			return filter, err
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			return filter, err
		}
		filter.To = &t
	}
	return filter, nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid time format")
}
