package model

import "github.com/ethereum/go-ethereum/common"

// RateLimitConfig 定义调用方的限流规则
type RateLimitConfig struct {
	QPS   float64 `json:"qps"`
	Burst int     `json:"burst"`
}

// Principal is an API client acting as one on-ledger identity: a trader,
// a relayer or an admin. Requests it makes are signed as Address.
type Principal struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	APIKey  string          `json:"-"`
	Address common.Address  `json:"address"`
	Rate    RateLimitConfig `json:"rate_limit"`
}
