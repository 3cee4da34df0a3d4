package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/settlement"
)

type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideBuy {
		return "BUY"
	}
	return "SELL"
}

func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Side) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch strings.ToUpper(raw) {
	case "BUY":
		*s = SideBuy
	case "SELL":
		*s = SideSell
	default:
		return fmt.Errorf("invalid side %q", raw)
	}
	return nil
}

type OrderStatus string

const (
	OrderActive          OrderStatus = "ACTIVE"
	OrderPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderFilled          OrderStatus = "FILLED"
	OrderCancelled       OrderStatus = "CANCELLED"
	OrderExpired         OrderStatus = "EXPIRED"
)

func (s OrderStatus) Open() bool {
	return s == OrderActive || s == OrderPartiallyFilled
}

// PreOrder is the signed off-exchange order a trader hands to a relayer.
type PreOrder struct {
	Trader          common.Address `json:"trader"`
	CollateralToken common.Address `json:"collateral_token"`
	Market          common.Address `json:"market"`
	Amount          uint64         `json:"amount"`
	Price           uint64         `json:"price"`
	Side            Side           `json:"side"`
	Nonce           uint64         `json:"nonce"`
	Deadline        int64          `json:"deadline"`
}

// Validate checks the order's own fields against the current time.
func (o PreOrder) Validate(now int64) error {
	if o.Amount == 0 {
		return apperrors.ErrZeroAmount
	}
	if err := settlement.ValidatePrice(o.Price); err != nil {
		return err
	}
	if o.Deadline <= now {
		return apperrors.ErrOrderExpired.Withf("order deadline %d has passed", o.Deadline)
	}
	return nil
}

// OrderRecord tracks fill progress of one order, keyed by its content hash.
// CollateralLocked is the collateral still reserved for the unfilled part.
type OrderRecord struct {
	Key              common.Hash    `json:"key"`
	Market           common.Address `json:"market"`
	Owner            common.Address `json:"owner"`
	CollateralToken  common.Address `json:"collateral_token"`
	Side             Side           `json:"side"`
	Price            uint64         `json:"price"`
	OriginalQty      uint64         `json:"original_qty"`
	FilledQty        uint64         `json:"filled_qty"`
	CollateralLocked uint64         `json:"collateral_locked"`
	CreatedAt        int64          `json:"created_at"`
	ExpiresAt        int64          `json:"expires_at"`
	Status           OrderStatus    `json:"status"`
}

func NewOrderRecord(key common.Hash, o PreOrder, now int64) *OrderRecord {
	return &OrderRecord{
		Key:             key,
		Market:          o.Market,
		Owner:           o.Trader,
		CollateralToken: o.CollateralToken,
		Side:            o.Side,
		Price:           o.Price,
		OriginalQty:     o.Amount,
		CreatedAt:       now,
		ExpiresAt:       o.Deadline,
		Status:          OrderActive,
	}
}

func (r *OrderRecord) Remaining() uint64 {
	return r.OriginalQty - r.FilledQty
}

func (r *OrderRecord) CanFill(now int64) bool {
	return r.Status.Open() && now <= r.ExpiresAt && r.Remaining() > 0
}

// ReserveFor returns the share of CollateralLocked that backs qty of the
// remaining quantity.
func (r *OrderRecord) ReserveFor(qty uint64) (uint64, error) {
	if r.CollateralLocked == 0 {
		return 0, nil
	}
	return settlement.ProRata(r.CollateralLocked, qty, r.Remaining())
}

// Fill records qty as filled, consumes its reserved collateral share and
// returns that share.
func (r *OrderRecord) Fill(qty uint64, now int64) (uint64, error) {
	if !r.CanFill(now) {
		return 0, apperrors.ErrOrderExpired.Withf("order %s is %s and cannot be filled", r.Key.Hex(), r.Status)
	}
	if qty == 0 {
		return 0, apperrors.ErrZeroAmount
	}
	if qty > r.Remaining() {
		return 0, apperrors.ErrExceedOrderAmount.Withf("fill %d exceeds remaining %d", qty, r.Remaining())
	}
	share, err := r.ReserveFor(qty)
	if err != nil {
		return 0, err
	}
	r.FilledQty += qty
	r.CollateralLocked -= share
	if r.Remaining() == 0 {
		r.Status = OrderFilled
	} else {
		r.Status = OrderPartiallyFilled
	}
	return share, nil
}

// Cancel closes the order and returns the collateral it still reserves.
func (r *OrderRecord) Cancel() (uint64, error) {
	switch r.Status {
	case OrderFilled:
		return 0, apperrors.ErrOrderAlreadyFilled
	case OrderCancelled:
		return 0, apperrors.ErrOrderAlreadyCancelled
	case OrderExpired:
		return 0, apperrors.ErrOrderExpired.Withf("order %s already expired", r.Key.Hex())
	}
	return r.release(OrderCancelled), nil
}

// MarkExpired closes an open order whose deadline has passed and returns
// the collateral it still reserves.
func (r *OrderRecord) MarkExpired(now int64) (uint64, error) {
	if !r.Status.Open() {
		return 0, apperrors.ErrOrderNotActive.Withf("order %s is %s", r.Key.Hex(), r.Status)
	}
	if now <= r.ExpiresAt {
		return 0, apperrors.ErrOrderNotExpired
	}
	return r.release(OrderExpired), nil
}

func (r *OrderRecord) release(status OrderStatus) uint64 {
	unlocked := r.CollateralLocked
	r.CollateralLocked = 0
	r.Status = status
	return unlocked
}
