package trading

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/premarket/internal/host"
	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/settlement"
	"github.com/GoPolymarket/premarket/internal/store"
)

func sideBps(p model.EconomicPolicy, side model.Side) uint64 {
	if side == model.SideBuy {
		return p.BuyerCollateralBps
	}
	return p.SellerCollateralBps
}

func (s *session) putOrder(rec *model.OrderRecord) error {
	return store.PutJSON(s.tx, model.OrderKey(rec.Key), rec)
}

// release credits unlocked collateral back to the order owner.
func (s *session) release(call host.Call, rec *model.OrderRecord, unlocked uint64, reason string) error {
	if unlocked == 0 {
		return nil
	}
	if err := s.ledger.Credit(call, rec.Owner, rec.CollateralToken, unlocked); err != nil {
		return err
	}
	s.released(rec.CollateralToken, reason, unlocked)
	return nil
}

// placeOrder records a signed order and locks its full collateral up front.
func (s *session) placeOrder(call host.Call, order model.PreOrder, sig []byte) (*model.OrderRecord, error) {
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}
	if cfg.Paused {
		return nil, apperrors.ErrTradingPaused
	}
	if err := s.ledgerReady(cfg); err != nil {
		return nil, err
	}
	if call.Signer != order.Trader && !cfg.IsRelayer(call.Signer) {
		return nil, apperrors.ErrUnauthorized.Withf("only the trader or a relayer can place this order")
	}
	if err := order.Validate(call.Now); err != nil {
		return nil, err
	}
	if order.Amount > cfg.Economic.MaxOrder {
		return nil, apperrors.ErrOrderTooLarge.Withf("order amount %d exceeds max %d", order.Amount, cfg.Economic.MaxOrder)
	}
	if _, err := s.market(order.Market); err != nil {
		return nil, err
	}
	if err := s.e.verifier.Verify(order, sig); err != nil {
		return nil, err
	}
	key := s.e.verifier.Key(order)
	if _, exists, err := s.order(key); err != nil {
		return nil, err
	} else if exists {
		return nil, apperrors.ErrOrderAlreadyPlaced.Withf("order %s already exists", key.Hex())
	}

	lock, err := settlement.Collateral(order.Amount, order.Price, sideBps(cfg.Economic, order.Side))
	if err != nil {
		return nil, err
	}
	if lock > 0 {
		if err := s.ledger.Slash(call, order.Trader, order.CollateralToken, lock); err != nil {
			return nil, err
		}
	}
	rec := model.NewOrderRecord(key, order, call.Now)
	rec.CollateralLocked = lock
	if err := s.putOrder(rec); err != nil {
		return nil, err
	}
	s.locked(order.CollateralToken, lock)
	s.emit(call.Now, "OrderPlaced", model.Fields{
		"order_key":         key.Hex(),
		"trader":            order.Trader.Hex(),
		"market":            order.Market.Hex(),
		"side":              order.Side.String(),
		"amount":            order.Amount,
		"price":             order.Price,
		"collateral_locked": lock,
	})
	return rec, nil
}

// cancelOrder closes an order on behalf of its owner. An order never seen
// before gets a record so it can no longer be matched.
func (s *session) cancelOrder(call host.Call, order model.PreOrder, sig []byte) (*model.OrderRecord, error) {
	if call.Signer != order.Trader {
		return nil, apperrors.ErrUnauthorized.Withf("only the order owner can cancel it")
	}
	if err := s.e.verifier.Verify(order, sig); err != nil {
		return nil, err
	}
	key := s.e.verifier.Key(order)
	rec, ok, err := s.order(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		rec = model.NewOrderRecord(key, order, call.Now)
	}
	unlocked, err := rec.Cancel()
	if err != nil {
		return nil, err
	}
	if err := s.release(call, rec, unlocked, "order_cancelled"); err != nil {
		return nil, err
	}
	if err := s.putOrder(rec); err != nil {
		return nil, err
	}
	s.emit(call.Now, "OrderCancelled", model.Fields{
		"order_key":  key.Hex(),
		"trader":     rec.Owner.Hex(),
		"filled_qty": rec.FilledQty,
		"unlocked":   unlocked,
	})
	return rec, nil
}

// expireOrder closes an open order past its deadline. Anyone may call it.
func (s *session) expireOrder(call host.Call, key common.Hash) (*model.OrderRecord, error) {
	rec, ok, err := s.order(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrOrderNotFound.Withf("order %s not found", key.Hex())
	}
	unlocked, err := rec.MarkExpired(call.Now)
	if err != nil {
		return nil, err
	}
	if err := s.release(call, rec, unlocked, "order_expired"); err != nil {
		return nil, err
	}
	if err := s.putOrder(rec); err != nil {
		return nil, err
	}
	s.emit(call.Now, "OrderExpired", model.Fields{
		"order_key":  key.Hex(),
		"trader":     rec.Owner.Hex(),
		"filled_qty": rec.FilledQty,
		"unlocked":   unlocked,
	})
	return rec, nil
}

// PlaceOrder registers a signed order and locks its collateral.
func (e *Engine) PlaceOrder(ctx context.Context, call host.Call, order model.PreOrder, sig []byte) (*model.OrderRecord, error) {
	var out *model.OrderRecord
	err := e.update(ctx, call, "place_order", func(s *session) error {
		var err error
		out, err = s.placeOrder(call, order, sig)
		return err
	})
	return out, err
}

func (e *Engine) CancelOrder(ctx context.Context, call host.Call, order model.PreOrder, sig []byte) (*model.OrderRecord, error) {
	var out *model.OrderRecord
	err := e.update(ctx, call, "cancel_order", func(s *session) error {
		var err error
		out, err = s.cancelOrder(call, order, sig)
		return err
	})
	return out, err
}

func (e *Engine) ExpireOrder(ctx context.Context, call host.Call, key common.Hash) (*model.OrderRecord, error) {
	var out *model.OrderRecord
	err := e.update(ctx, call, "expire_order", func(s *session) error {
		var err error
		out, err = s.expireOrder(call, key)
		return err
	})
	return out, err
}
