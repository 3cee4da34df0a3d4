package model

import (
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/premarket/internal/authz"
	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/settlement"
)

const (
	MaxSymbolLen = 10
	MaxNameLen   = 50

	// Absolute bounds of any settle window, in seconds.
	MinSettleWindow int64 = 3600
	MaxSettleWindow int64 = 30 * 24 * 3600
)

// EconomicPolicy sizes collateral, rewards and penalties.
type EconomicPolicy struct {
	MinFill             uint64 `json:"min_fill" mapstructure:"min_fill"`
	MaxOrder            uint64 `json:"max_order" mapstructure:"max_order"`
	BuyerCollateralBps  uint64 `json:"buyer_collateral_bps" mapstructure:"buyer_collateral_bps"`
	SellerCollateralBps uint64 `json:"seller_collateral_bps" mapstructure:"seller_collateral_bps"`
	SellerRewardBps     uint64 `json:"seller_reward_bps" mapstructure:"seller_reward_bps"`
	LatePenaltyBps      uint64 `json:"late_penalty_bps" mapstructure:"late_penalty_bps"`
}

func DefaultEconomicPolicy() EconomicPolicy {
	return EconomicPolicy{
		MinFill:             1_000,
		MaxOrder:            1_000_000_000_000,
		BuyerCollateralBps:  10_000,
		SellerCollateralBps: 10_000,
		SellerRewardBps:     0,
		LatePenaltyBps:      10_000,
	}
}

func (p EconomicPolicy) Validate() error {
	switch {
	case p.BuyerCollateralBps > settlement.MaxCollateralBps:
		return apperrors.ErrInvalidPolicy.Withf("buyer collateral %d bps exceeds %d", p.BuyerCollateralBps, settlement.MaxCollateralBps)
	case p.SellerCollateralBps > settlement.MaxCollateralBps:
		return apperrors.ErrInvalidPolicy.Withf("seller collateral %d bps exceeds %d", p.SellerCollateralBps, settlement.MaxCollateralBps)
	case p.SellerRewardBps > settlement.MaxRewardBps:
		return apperrors.ErrInvalidPolicy.Withf("seller reward %d bps exceeds %d", p.SellerRewardBps, settlement.MaxRewardBps)
	case p.LatePenaltyBps > settlement.MaxPenaltyBps:
		return apperrors.ErrInvalidPolicy.Withf("late penalty %d bps exceeds %d", p.LatePenaltyBps, settlement.MaxPenaltyBps)
	case p.MinFill == 0:
		return apperrors.ErrInvalidPolicy.Withf("min fill must be positive")
	case p.MaxOrder <= p.MinFill:
		return apperrors.ErrInvalidPolicy.Withf("max order %d must exceed min fill %d", p.MaxOrder, p.MinFill)
	case p.MaxOrder > settlement.MaxOrderAmount:
		return apperrors.ErrInvalidPolicy.Withf("max order %d exceeds %d", p.MaxOrder, settlement.MaxOrderAmount)
	}
	return nil
}

// TechnicalPolicy bounds the settle window of markets created under it.
type TechnicalPolicy struct {
	MinSettleWindow int64 `json:"min_settle_window" mapstructure:"min_settle_window"`
	MaxSettleWindow int64 `json:"max_settle_window" mapstructure:"max_settle_window"`
}

func DefaultTechnicalPolicy() TechnicalPolicy {
	return TechnicalPolicy{MinSettleWindow: MinSettleWindow, MaxSettleWindow: MaxSettleWindow}
}

func (p TechnicalPolicy) Validate() error {
	switch {
	case p.MinSettleWindow < MinSettleWindow:
		return apperrors.ErrInvalidPolicy.Withf("min settle window %ds is below %ds", p.MinSettleWindow, MinSettleWindow)
	case p.MaxSettleWindow > MaxSettleWindow:
		return apperrors.ErrInvalidPolicy.Withf("max settle window %ds exceeds %ds", p.MaxSettleWindow, MaxSettleWindow)
	case p.MaxSettleWindow <= p.MinSettleWindow:
		return apperrors.ErrInvalidPolicy.Withf("max settle window must exceed min settle window")
	}
	return nil
}

// Allows reports whether window lies in both the absolute and policy bounds.
func (p TechnicalPolicy) Allows(window int64) bool {
	if window < MinSettleWindow || window > MaxSettleWindow {
		return false
	}
	return window >= p.MinSettleWindow && window <= p.MaxSettleWindow
}

// TradeConfig is the single configuration aggregate of the trading module.
type TradeConfig struct {
	Admin        common.Address  `json:"admin"`
	LedgerModule common.Address  `json:"ledger_module"`
	Relayers     authz.AllowList `json:"relayers"`
	Economic     EconomicPolicy  `json:"economic"`
	Technical    TechnicalPolicy `json:"technical"`
	Paused       bool            `json:"paused"`
	MarketSeq    uint64          `json:"market_seq"`
	CreatedAt    int64           `json:"created_at"`
}

func (c *TradeConfig) IsRelayer(id common.Address) bool {
	return c.Relayers.Contains(id)
}

// TokenMarket is a pre-market listing that is later mapped to a real token.
type TokenMarket struct {
	ID              common.Address  `json:"id"`
	Symbol          string          `json:"symbol"`
	Name            string          `json:"name"`
	RealToken       *common.Address `json:"real_token,omitempty"`
	MappedAt        *int64          `json:"mapped_at,omitempty"`
	SettleTimeLimit int64           `json:"settle_time_limit"`
	CreatedAt       int64           `json:"created_at"`
}

// NormalizeLabels trims and checks a market's symbol and name.
func NormalizeLabels(symbol, name string) (string, string, error) {
	symbol = strings.TrimSpace(symbol)
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(symbol); n == 0 || n > MaxSymbolLen {
		return "", "", apperrors.ErrInvalidSymbol
	}
	if n := utf8.RuneCountInString(name); n == 0 || n > MaxNameLen {
		return "", "", apperrors.ErrInvalidName
	}
	return symbol, name, nil
}

func (m *TokenMarket) IsMapped() bool {
	return m.RealToken != nil
}

// Map sets the real token. The mapping is one-way.
func (m *TokenMarket) Map(token common.Address, now int64) error {
	if m.IsMapped() {
		return apperrors.ErrTokenAlreadyMapped
	}
	if token == (common.Address{}) {
		return apperrors.ErrInvalidAddress
	}
	m.RealToken = &token
	m.MappedAt = &now
	return nil
}
