// Package settlement holds the fixed-point economics of the trading module.
// Every function is pure; intermediate products that do not fit in 64 bits
// fail with apperrors.ErrOverflow and every division truncates toward zero.
package settlement

import (
	"math/bits"

	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
)

const (
	// PriceScale is the fixed-point scale of order prices: 1.0 == 1_000_000.
	PriceScale uint64 = 1_000_000
	// BpsDenominator is 100% in basis points.
	BpsDenominator uint64 = 10_000

	MaxPrice         uint64 = 1_000_000_000_000_000_000
	MaxCollateralBps uint64 = 20_000
	MaxRewardBps     uint64 = 1_000
	MaxPenaltyBps    uint64 = 10_000
	MaxOrderAmount   uint64 = 1_000_000_000_000_000
)

// TradeValue = amount * price / PriceScale.
func TradeValue(amount, price uint64) (uint64, error) {
	return mulDiv(amount, price, PriceScale)
}

// Collateral = TradeValue * ratioBps / BpsDenominator.
func Collateral(amount, price, ratioBps uint64) (uint64, error) {
	value, err := TradeValue(amount, price)
	if err != nil {
		return 0, err
	}
	return mulDiv(value, ratioBps, BpsDenominator)
}

// Reward sizes the seller reward paid at settlement.
func Reward(amount, price, rewardBps uint64) (uint64, error) {
	return Collateral(amount, price, rewardBps)
}

// Penalty sizes the late-delivery penalty, capped at the seller's collateral.
func Penalty(amount, price, penaltyBps, sellerCollateral uint64) (uint64, error) {
	raw, err := Collateral(amount, price, penaltyBps)
	if err != nil {
		return 0, err
	}
	return min(raw, sellerCollateral), nil
}

// FillAmount is min(buyQty, sellQty, requested). A nil request means no cap.
func FillAmount(buyQty, sellQty uint64, requested *uint64) uint64 {
	fill := min(buyQty, sellQty)
	if requested != nil {
		fill = min(fill, *requested)
	}
	return fill
}

// ProRata returns total * part / whole using a 128-bit intermediate.
// part must not exceed whole.
func ProRata(total, part, whole uint64) (uint64, error) {
	if whole == 0 {
		return 0, apperrors.ErrOverflow.Withf("pro-rata share of zero quantity")
	}
	if part > whole {
		return 0, apperrors.ErrExceedOrderAmount
	}
	hi, lo := bits.Mul64(total, part)
	quo, _ := bits.Div64(hi, lo, whole)
	return quo, nil
}

// ValidatePrice checks a price against the accepted range (0, MaxPrice].
func ValidatePrice(price uint64) error {
	if price == 0 {
		return apperrors.ErrPriceTooLow
	}
	if price > MaxPrice {
		return apperrors.ErrPriceTooHigh
	}
	return nil
}

// Add is a checked addition.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, apperrors.ErrOverflow
	}
	return sum, nil
}

// Sub is a checked subtraction; underflow is reported as an overflow.
func Sub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, apperrors.ErrOverflow
	}
	return diff, nil
}

func mulDiv(a, b, d uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, apperrors.ErrOverflow
	}
	return lo / d, nil
}
