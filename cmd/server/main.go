package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jmoiron/sqlx"

	"github.com/GoPolymarket/premarket/internal/bank"
	"github.com/GoPolymarket/premarket/internal/config"
	"github.com/GoPolymarket/premarket/internal/handler"
	"github.com/GoPolymarket/premarket/internal/host"
	"github.com/GoPolymarket/premarket/internal/ledger"
	"github.com/GoPolymarket/premarket/internal/middleware"
	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/pkg/logger"
	"github.com/GoPolymarket/premarket/internal/repository"
	"github.com/GoPolymarket/premarket/internal/service"
	"github.com/GoPolymarket/premarket/internal/store"
	"github.com/GoPolymarket/premarket/internal/trading"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)

	// 2. Initialize Persistence
	// Ledger records (Postgres > Memory)
	var (
		db *sqlx.DB
		st store.Store
	)
	if cfg.Database.DSN != "" {
		db, err = repository.NewDB(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		pg, err := repository.NewPostgresStore(db)
		if err != nil {
			log.Fatalf("Failed to prepare ledger schema: %v", err)
		}
		logger.Info("✅ Connected to PostgreSQL")
		st = pg
	} else {
		logger.Warn("⚠️ No database configured, ledger state lives in memory")
		st = store.NewMemoryStore()
	}

	var redisClient *repository.RedisClient
	if cfg.Redis.Addr != "" {
		redisClient, err = repository.NewRedisClient(cfg)
		if err == nil {
			logger.Info("✅ Connected to Redis")
		} else {
			logger.Error("⚠️ Failed to connect to Redis, falling back", "error", err)
			redisClient = nil
		}
	}

	// Notification persistence (Postgres > Redis > file only)
	var notifyRepo service.NotificationRepo
	var pgNotify *repository.PostgresNotificationRepo
	switch {
	case db != nil:
		pgNotify = repository.NewPostgresNotificationRepo(db)
		notifyRepo = pgNotify
	case redisClient != nil:
		notifyRepo = repository.NewRedisNotificationRepo(redisClient, cfg.Redis.NotificationListKey, cfg.Redis.NotificationListMax)
	}

	// Idempotency (Redis > Postgres > Memory)
	idemTTL := time.Duration(cfg.Redis.IdempotencyTTLSeconds) * time.Second
	var idempotencyStore middleware.IdempotencyStore
	var pgIdem *repository.PostgresIdempotencyStore
	switch {
	case redisClient != nil:
		idempotencyStore = repository.NewRedisIdempotencyStore(redisClient, idemTTL)
	case db != nil:
		pgIdem = repository.NewPostgresIdempotencyStore(db)
		idempotencyStore = pgIdem
	default:
		idempotencyStore = middleware.NewInMemIdempotencyStore(idemTTL)
	}

	// 3. Initialize Core Services
	notifySvc, err := service.NewNotificationService(service.NotificationOptions{
		LogDir:  cfg.Notifications.LogDir,
		Buffer:  cfg.Notifications.Buffer,
		History: cfg.Notifications.History,
		Repo:    notifyRepo,
	})
	if err != nil {
		log.Fatalf("Failed to initialize notification service: %v", err)
	}

	clock := host.SystemClock{}
	tokenBank := bank.NewStoreBank()
	vault := ledger.NewVault(cfg.VaultModule(), st, tokenBank, notifySvc)
	engine := trading.NewEngine(cfg.TradingModule(), cfg.Chain.ChainID, st, vault, tokenBank, trading.WithSink(notifySvc))

	if err := bootstrap(context.Background(), cfg, clock, vault, engine); err != nil {
		log.Fatalf("Bootstrap failed: %v", err)
	}

	principals := service.NewPrincipalManager(cfg.PrincipalModels())
	if !cfg.Auth.RequireAPIKey {
		if list := cfg.PrincipalModels(); len(list) > 0 {
			principals.SetFallback(list[0])
		} else {
			principals.SetFallback(&model.Principal{ID: "anonymous", Name: "anonymous"})
		}
	}

	stopCleanup := startCleanup(cfg, pgIdem, pgNotify)

	// 4. Setup Router
	deps := handler.RouterDeps{
		Config:        cfg,
		Vault:         vault,
		Engine:        engine,
		Principals:    principals,
		Notifications: notifySvc,
		Idempotency:   idempotencyStore,
		Clock:         clock,
		Wallet:        handler.NewWalletHandler(st, tokenBank, cfg.Dev.FaucetMax),
		Faucet:        cfg.Dev.Faucet,
	}
	if db != nil {
		deps.DB = db
	}
	r := handler.NewRouter(deps)

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("🚀 premarket started", "port", cfg.Server.Port,
			"vault", cfg.VaultModule().Hex(), "trading", cfg.TradingModule().Hex())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	stopCleanup()
	notifySvc.Close()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}

	logger.Info("Server exiting")
}

// bootstrap initializes the vault and the trading module on first start.
// Re-running against an initialized store is a no-op.
func bootstrap(ctx context.Context, cfg *config.Config, clock host.Clock, vault *ledger.Vault, engine *trading.Engine) error {
	if cfg.Vault.Bootstrap {
		admin := common.HexToAddress(cfg.Vault.Admin)
		call := host.Call{Signer: admin, Now: clock.Now(), Chain: host.Invoke(vault.ID(), "initialize")}
		err := vault.Init(ctx, call, admin, common.HexToAddress(cfg.Vault.EmergencyAdmin))
		if err != nil && !errors.Is(err, apperrors.ErrAlreadyInitialized) {
			return err
		}
		call.Chain = host.Invoke(vault.ID(), "add_authorized_caller")
		err = vault.AddCaller(ctx, call, engine.ID())
		if err != nil && !errors.Is(err, apperrors.ErrCallerAlreadyAuthorized) {
			return err
		}
		logger.Info("vault ready", "admin", admin.Hex(), "caller", engine.ID().Hex())
	}

	if cfg.Trading.Bootstrap {
		admin := common.HexToAddress(cfg.Trading.Admin)
		call := host.Call{Signer: admin, Now: clock.Now(), Chain: host.Invoke(engine.ID(), "initialize")}
		err := engine.Init(ctx, call, admin, vault.ID(), cfg.Trading.Economic, cfg.Trading.Technical)
		if err != nil && !errors.Is(err, apperrors.ErrAlreadyInitialized) {
			return err
		}
		call.Chain = host.Invoke(engine.ID(), "add_relayer")
		for _, r := range cfg.RelayerAddresses() {
			err := engine.AddRelayer(ctx, call, r)
			if err != nil && !errors.Is(err, apperrors.ErrRelayerAlreadyAdded) {
				return err
			}
		}
		logger.Info("trading ready", "admin", admin.Hex(), "relayers", len(cfg.Trading.Relayers))
	}
	return nil
}

type cleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// startCleanup prunes old idempotency keys and notifications from Postgres.
func startCleanup(cfg *config.Config, idem *repository.PostgresIdempotencyStore, notify *repository.PostgresNotificationRepo) func() {
	type job struct {
		name string
		c    cleaner
		age  time.Duration
	}
	var jobs []job
	if idem != nil {
		jobs = append(jobs, job{"idempotency", idem, time.Duration(cfg.Database.IdempotencyRetentionHours) * time.Hour})
	}
	if notify != nil {
		jobs = append(jobs, job{"notifications", notify, time.Duration(cfg.Database.NotificationRetentionDays) * 24 * time.Hour})
	}
	interval := time.Duration(cfg.Database.CleanupIntervalMinutes) * time.Minute
	if len(jobs) == 0 || interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, j := range jobs {
					if err := j.c.Cleanup(ctx, j.age); err != nil {
						logger.Error("cleanup failed", "table", j.name, "error", err)
					}
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
