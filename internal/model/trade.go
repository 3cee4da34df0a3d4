package model

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
)

const (
	ResolutionSettled   = "SETTLED"
	ResolutionCancelled = "CANCELLED"
)

// TradeRecord is created at match time and resolved exactly once.
type TradeRecord struct {
	ID               string          `json:"id"`
	Buyer            common.Address  `json:"buyer"`
	Seller           common.Address  `json:"seller"`
	Market           common.Address  `json:"market"`
	CollateralToken  common.Address  `json:"collateral_token"`
	FilledAmount     uint64          `json:"filled_amount"`
	Price            uint64          `json:"price"`
	BuyerCollateral  uint64          `json:"buyer_collateral"`
	SellerCollateral uint64          `json:"seller_collateral"`
	MatchTime        int64           `json:"match_time"`
	Settled          bool            `json:"settled"`
	DeliveredToken   *common.Address `json:"delivered_token,omitempty"`
	BuyOrder         common.Hash     `json:"buy_order"`
	SellOrder        common.Hash     `json:"sell_order"`
	Resolution       string          `json:"resolution,omitempty"`
	ResolvedAt       int64           `json:"resolved_at,omitempty"`
	Reward           uint64          `json:"reward,omitempty"`
	Penalty          uint64          `json:"penalty,omitempty"`
}

// Deadline is the last second at which the seller may still settle.
func (t *TradeRecord) Deadline(settleTimeLimit int64) int64 {
	return t.MatchTime + settleTimeLimit
}

func (t *TradeRecord) ensureOpen() error {
	if t.Settled {
		return apperrors.ErrTradeAlreadySettled.Withf("trade %s already %s", t.ID, t.Resolution)
	}
	return nil
}

// CheckSettle verifies that signer may settle at now.
func (t *TradeRecord) CheckSettle(signer common.Address, settleTimeLimit, now int64) error {
	if err := t.ensureOpen(); err != nil {
		return err
	}
	if signer != t.Seller {
		return apperrors.ErrOnlySellerCanSettle
	}
	if now > t.Deadline(settleTimeLimit) {
		return apperrors.ErrGracePeriodExpired.Withf("settle window closed at %d", t.Deadline(settleTimeLimit))
	}
	return nil
}

// CheckCancel verifies that signer may cancel at now.
func (t *TradeRecord) CheckCancel(signer common.Address, settleTimeLimit, now int64) error {
	if err := t.ensureOpen(); err != nil {
		return err
	}
	if signer != t.Buyer {
		return apperrors.ErrOnlyBuyerCanCancel
	}
	if now <= t.Deadline(settleTimeLimit) {
		return apperrors.ErrGracePeriodActive.Withf("settle window open until %d", t.Deadline(settleTimeLimit))
	}
	return nil
}

func (t *TradeRecord) MarkSettled(token common.Address, reward uint64, now int64) {
	t.Settled = true
	t.DeliveredToken = &token
	t.Resolution = ResolutionSettled
	t.Reward = reward
	t.ResolvedAt = now
}

func (t *TradeRecord) MarkCancelled(penalty uint64, now int64) {
	t.Settled = true
	t.Resolution = ResolutionCancelled
	t.Penalty = penalty
	t.ResolvedAt = now
}
