package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LedgerOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "premarket_ledger_operations_total",
		Help: "Ledger operations by name and result",
	}, []string{"op", "result"})

	TradingOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "premarket_trading_operations_total",
		Help: "Trading operations by name and result",
	}, []string{"op", "result"})

	Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "premarket_rejections_total",
		Help: "Rejected operations by error code",
	}, []string{"code"})

	CollateralLocked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "premarket_collateral_locked_total",
		Help: "Collateral locked at match time, in token base units",
	}, []string{"token"})

	CollateralReleased = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "premarket_collateral_released_total",
		Help: "Collateral released by settle, cancel or order unlock, in token base units",
	}, []string{"token", "reason"})

	NotificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "premarket_notifications_dropped_total",
		Help: "Notifications dropped because the sink buffer was full",
	})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "premarket_http_latency_seconds",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
