package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoPolymarket/premarket/internal/config"
	"github.com/GoPolymarket/premarket/internal/host"
	"github.com/GoPolymarket/premarket/internal/ledger"
	"github.com/GoPolymarket/premarket/internal/middleware"
	"github.com/GoPolymarket/premarket/internal/service"
	"github.com/GoPolymarket/premarket/internal/trading"
)

type RouterDeps struct {
	Config        *config.Config
	Vault         *ledger.Vault
	Engine        *trading.Engine
	Principals    *service.PrincipalManager
	Notifications *service.NotificationService
	Idempotency   middleware.IdempotencyStore
	Clock         host.Clock
	// Wallet serves token holdings; nil leaves the wallet routes off.
	Wallet *WalletHandler
	// Faucet mounts POST /v1/dev/faucet on Wallet.
	Faucet bool
	// DB is optional; nil skips the database probe in /health.
	DB Pinger
}

func NewRouter(d RouterDeps) *gin.Engine {
	clock := d.Clock
	if clock == nil {
		clock = host.SystemClock{}
	}
	vaultH := NewVaultHandler(d.Vault, clock)
	tradingH := NewTradingHandler(d.Engine, clock)
	notifyH := NewNotificationHandler(d.Notifications)
	healthH := NewHealthHandler(d.DB)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.AccessLogMiddleware())

	r.GET("/health", healthH.Health)
	if d.Config.Metrics.Enabled {
		r.GET(d.Config.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(d.Config, d.Principals))
	v1.Use(middleware.RateLimitMiddleware(d.Principals))
	v1.Use(middleware.ReadOnlyMiddleware(d.Config.Server.ReadOnly))
	v1.Use(middleware.IdempotencyMiddleware(d.Idempotency))
	{
		v1.GET("/vault/config", vaultH.Config)
		v1.POST("/vault/callers", vaultH.AddCaller)
		v1.DELETE("/vault/callers/:id", vaultH.RemoveCaller)
		v1.POST("/vault/pause", vaultH.Pause)
		v1.POST("/vault/unpause", vaultH.Unpause)
		v1.POST("/vault/deposit", vaultH.Deposit)
		v1.POST("/vault/withdraw", vaultH.Withdraw)
		v1.GET("/vault/balances/:token/:owner", vaultH.Balance)
		v1.GET("/vault/custody/:token", vaultH.Custody)
		v1.GET("/vault/solvency/:token", vaultH.Solvency)

		v1.POST("/markets", tradingH.CreateMarket)
		v1.GET("/markets/:id", tradingH.GetMarket)
		v1.POST("/markets/:id/map", tradingH.MapToken)
		v1.GET("/trading/config", tradingH.Config)
		v1.PUT("/trading/economic", tradingH.UpdateEconomic)
		v1.PUT("/trading/technical", tradingH.UpdateTechnical)
		v1.POST("/trading/relayers", tradingH.AddRelayer)
		v1.DELETE("/trading/relayers/:id", tradingH.RemoveRelayer)
		v1.POST("/trading/pause", tradingH.Pause)
		v1.POST("/trading/unpause", tradingH.Unpause)

		v1.POST("/orders", tradingH.PlaceOrder)
		v1.POST("/orders/cancel", tradingH.CancelOrder)
		v1.POST("/orders/:key/expire", tradingH.ExpireOrder)
		v1.GET("/orders/:key", tradingH.GetOrder)

		v1.POST("/trades/match", tradingH.Match)
		v1.POST("/trades/:id/settle", tradingH.Settle)
		v1.POST("/trades/:id/cancel", tradingH.CancelTrade)
		v1.GET("/trades/:id", tradingH.GetTrade)

		v1.GET("/notifications", notifyH.List)
		v1.GET("/notifications/stream", notifyH.Stream)

		if d.Wallet != nil {
			v1.GET("/wallet/:token/:owner", d.Wallet.Holding)
			if d.Faucet {
				v1.POST("/dev/faucet", d.Wallet.Faucet)
			}
		}
	}
	return r
}
