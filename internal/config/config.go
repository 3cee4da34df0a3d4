package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"github.com/GoPolymarket/premarket/internal/model"
)

type Config struct {
	Server        ServerConfig       `mapstructure:"server"`
	Log           LogConfig          `mapstructure:"log"`
	Auth          AuthConfig         `mapstructure:"auth"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Redis         RedisConfig        `mapstructure:"redis"`
	Chain         ChainConfig        `mapstructure:"chain"`
	Vault         VaultConfig        `mapstructure:"vault"`
	Trading       TradingConfig      `mapstructure:"trading"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	Dev           DevConfig          `mapstructure:"dev"`
	Principals    []PrincipalConfig  `mapstructure:"principals"`
}

type ServerConfig struct {
	Port                   string `mapstructure:"port"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
	// ReadOnly rejects every mutating request; queries keep working.
	ReadOnly bool `mapstructure:"read_only"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	RequireAPIKey bool `mapstructure:"require_api_key"`
}

type DatabaseConfig struct {
	// Empty DSN keeps all state in memory.
	DSN                       string `mapstructure:"dsn"`
	IdempotencyRetentionHours int    `mapstructure:"idempotency_retention_hours"`
	NotificationRetentionDays int    `mapstructure:"notification_retention_days"`
	CleanupIntervalMinutes    int    `mapstructure:"cleanup_interval_minutes"`
}

type RedisConfig struct {
	Addr                  string `mapstructure:"addr"`
	Password              string `mapstructure:"password"`
	DB                    int    `mapstructure:"db"`
	IdempotencyTTLSeconds int    `mapstructure:"idempotency_ttl_seconds"`
	NotificationListKey   string `mapstructure:"notification_list_key"`
	NotificationListMax   int    `mapstructure:"notification_list_max"`
}

// ChainConfig names the module ids the vault and trading engine run under.
type ChainConfig struct {
	ChainID       int64  `mapstructure:"chain_id"`
	VaultModule   string `mapstructure:"vault_module"`
	TradingModule string `mapstructure:"trading_module"`
}

type VaultConfig struct {
	Admin          string `mapstructure:"admin"`
	EmergencyAdmin string `mapstructure:"emergency_admin"`
	// Bootstrap initializes the vault on first start and authorizes the trading module.
	Bootstrap bool `mapstructure:"bootstrap"`
}

type TradingConfig struct {
	Admin     string                `mapstructure:"admin"`
	Bootstrap bool                  `mapstructure:"bootstrap"`
	Relayers  []string              `mapstructure:"relayers"`
	Economic  model.EconomicPolicy  `mapstructure:"economic"`
	Technical model.TechnicalPolicy `mapstructure:"technical"`
}

type NotificationConfig struct {
	LogDir  string `mapstructure:"log_dir"`
	Buffer  int    `mapstructure:"buffer"`
	History int    `mapstructure:"history"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DevConfig enables the token faucet for local networks.
type DevConfig struct {
	Faucet    bool   `mapstructure:"faucet"`
	FaucetMax uint64 `mapstructure:"faucet_max"`
}

type PrincipalConfig struct {
	ID      string  `mapstructure:"id"`
	Name    string  `mapstructure:"name"`
	APIKey  string  `mapstructure:"api_key"`
	Address string  `mapstructure:"address"`
	QPS     float64 `mapstructure:"qps"`
	Burst   int     `mapstructure:"burst"`
}

// Load reads config.yaml from the working directory or ./configs, then
// applies PREMARKET_* environment overrides.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// e.g. PREMARKET_DATABASE_DSN
	v.SetEnvPrefix("premarket")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout_seconds", 5)
	v.SetDefault("server.read_only", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("auth.require_api_key", true)
	v.SetDefault("database.idempotency_retention_hours", 168)
	v.SetDefault("database.notification_retention_days", 30)
	v.SetDefault("database.cleanup_interval_minutes", 60)
	v.SetDefault("redis.idempotency_ttl_seconds", 86400)
	v.SetDefault("redis.notification_list_key", "premarket:notifications")
	v.SetDefault("redis.notification_list_max", 10000)
	v.SetDefault("chain.chain_id", 31337)
	v.SetDefault("chain.vault_module", "0x00000000000000000000000000000000000a0171")
	v.SetDefault("chain.trading_module", "0x00000000000000000000000000000000000b0172")
	v.SetDefault("vault.bootstrap", true)
	v.SetDefault("trading.bootstrap", true)
	v.SetDefault("notifications.buffer", 1024)
	v.SetDefault("notifications.history", 500)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("dev.faucet", false)
	v.SetDefault("dev.faucet_max", 1_000_000_000)

	econ := model.DefaultEconomicPolicy()
	v.SetDefault("trading.economic.min_fill", econ.MinFill)
	v.SetDefault("trading.economic.max_order", econ.MaxOrder)
	v.SetDefault("trading.economic.buyer_collateral_bps", econ.BuyerCollateralBps)
	v.SetDefault("trading.economic.seller_collateral_bps", econ.SellerCollateralBps)
	v.SetDefault("trading.economic.seller_reward_bps", econ.SellerRewardBps)
	v.SetDefault("trading.economic.late_penalty_bps", econ.LatePenaltyBps)
	tech := model.DefaultTechnicalPolicy()
	v.SetDefault("trading.technical.min_settle_window", tech.MinSettleWindow)
	v.SetDefault("trading.technical.max_settle_window", tech.MaxSettleWindow)
}

// Validate checks addresses and bounds before anything is wired.
func (c *Config) Validate() error {
	if c.Chain.ChainID <= 0 {
		return fmt.Errorf("chain.chain_id must be positive")
	}
	for name, addr := range map[string]string{
		"chain.vault_module":   c.Chain.VaultModule,
		"chain.trading_module": c.Chain.TradingModule,
	} {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("%s: invalid address %q", name, addr)
		}
	}
	if c.VaultModule() == c.TradingModule() {
		return fmt.Errorf("vault and trading modules must differ")
	}
	if c.Vault.Bootstrap {
		if !common.IsHexAddress(c.Vault.Admin) || !common.IsHexAddress(c.Vault.EmergencyAdmin) {
			return fmt.Errorf("vault.admin and vault.emergency_admin are required to bootstrap the vault")
		}
	}
	if c.Trading.Bootstrap {
		if !common.IsHexAddress(c.Trading.Admin) {
			return fmt.Errorf("trading.admin is required to bootstrap trading")
		}
		if err := c.Trading.Economic.Validate(); err != nil {
			return fmt.Errorf("trading.economic: %w", err)
		}
		if err := c.Trading.Technical.Validate(); err != nil {
			return fmt.Errorf("trading.technical: %w", err)
		}
	}
	for _, r := range c.Trading.Relayers {
		if !common.IsHexAddress(r) {
			return fmt.Errorf("trading.relayers: invalid address %q", r)
		}
	}
	seen := make(map[string]bool, len(c.Principals))
	for i, p := range c.Principals {
		if p.ID == "" || p.APIKey == "" {
			return fmt.Errorf("principals[%d]: id and api_key are required", i)
		}
		if seen[p.APIKey] {
			return fmt.Errorf("principals[%d]: duplicate api_key", i)
		}
		seen[p.APIKey] = true
		if !common.IsHexAddress(p.Address) {
			return fmt.Errorf("principals[%d]: invalid address %q", i, p.Address)
		}
	}
	if c.Auth.RequireAPIKey && len(c.Principals) == 0 {
		return fmt.Errorf("auth.require_api_key is set but no principals are configured")
	}
	return nil
}

func (c *Config) VaultModule() common.Address {
	return common.HexToAddress(c.Chain.VaultModule)
}

func (c *Config) TradingModule() common.Address {
	return common.HexToAddress(c.Chain.TradingModule)
}

func (c *Config) RelayerAddresses() []common.Address {
	out := make([]common.Address, 0, len(c.Trading.Relayers))
	for _, r := range c.Trading.Relayers {
		out = append(out, common.HexToAddress(r))
	}
	return out
}

// PrincipalModels converts the configured principals.
func (c *Config) PrincipalModels() []*model.Principal {
	out := make([]*model.Principal, 0, len(c.Principals))
	for _, p := range c.Principals {
		out = append(out, &model.Principal{
			ID:      p.ID,
			Name:    p.Name,
			APIKey:  p.APIKey,
			Address: common.HexToAddress(p.Address),
			Rate:    model.RateLimitConfig{QPS: p.QPS, Burst: p.Burst},
		})
	}
	return out
}
