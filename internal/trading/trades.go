package trading

import (
	"context"

	"github.com/GoPolymarket/premarket/internal/host"
	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/settlement"
	"github.com/GoPolymarket/premarket/internal/store"
)

// MatchRequest pairs a signed buy order with a signed sell order. Fill caps
// the matched quantity when set.
type MatchRequest struct {
	Buy     model.PreOrder
	BuySig  []byte
	Sell    model.PreOrder
	SellSig []byte
	Fill    *uint64
}

func checkPair(buy, sell model.PreOrder) error {
	switch {
	case buy.Side != model.SideBuy || sell.Side != model.SideSell:
		return apperrors.ErrInvalidOrderSide
	case buy.Market != sell.Market:
		return apperrors.ErrMarketMismatch
	case buy.CollateralToken != sell.CollateralToken:
		return apperrors.ErrCollateralMismatch
	case buy.Trader == sell.Trader:
		return apperrors.ErrSelfTrade
	case buy.Price < sell.Price:
		return apperrors.ErrInvalidPrice.Withf("buy price %d is below sell price %d", buy.Price, sell.Price)
	}
	return nil
}

// loadOrCreate returns the lifecycle record of order, creating an Active one
// the first time the order is seen.
func (s *session) loadOrCreate(order model.PreOrder, now int64) (*model.OrderRecord, error) {
	key := s.e.verifier.Key(order)
	rec, ok, err := s.order(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		rec = model.NewOrderRecord(key, order, now)
	}
	if !rec.CanFill(now) {
		return nil, apperrors.ErrOrderExpired.Withf("order %s is %s and cannot be filled", key.Hex(), rec.Status)
	}
	return rec, nil
}

// lockForFill fills rec and makes sure exactly required collateral ends up
// locked for the fill: a pre-funded share is consumed first, any shortfall is
// slashed and any excess goes back to the owner.
func (s *session) lockForFill(call host.Call, rec *model.OrderRecord, fill, required uint64) error {
	share, err := rec.Fill(fill, call.Now)
	if err != nil {
		return err
	}
	switch {
	case required > share:
		if err := s.ledger.Slash(call, rec.Owner, rec.CollateralToken, required-share); err != nil {
			return err
		}
		s.locked(rec.CollateralToken, required-share)
	case share > required:
		if err := s.ledger.Credit(call, rec.Owner, rec.CollateralToken, share-required); err != nil {
			return err
		}
		s.released(rec.CollateralToken, "reservation_excess", share-required)
	}
	return s.putOrder(rec)
}

func (s *session) match(call host.Call, req MatchRequest) (*model.TradeRecord, error) {
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}
	if cfg.Paused {
		return nil, apperrors.ErrTradingPaused
	}
	if !cfg.IsRelayer(call.Signer) {
		return nil, apperrors.ErrUnauthorizedRelayer.Withf("%s is not a relayer", call.Signer.Hex())
	}
	if err := s.ledgerReady(cfg); err != nil {
		return nil, err
	}

	buy, sell := req.Buy, req.Sell
	if err := checkPair(buy, sell); err != nil {
		return nil, err
	}
	for _, o := range []model.PreOrder{buy, sell} {
		if err := o.Validate(call.Now); err != nil {
			return nil, err
		}
	}
	if err := s.e.verifier.Verify(buy, req.BuySig); err != nil {
		return nil, err
	}
	if err := s.e.verifier.Verify(sell, req.SellSig); err != nil {
		return nil, err
	}
	if buy.Amount > cfg.Economic.MaxOrder || sell.Amount > cfg.Economic.MaxOrder {
		return nil, apperrors.ErrOrderTooLarge.Withf("order amount exceeds max %d", cfg.Economic.MaxOrder)
	}
	if _, err := s.market(buy.Market); err != nil {
		return nil, err
	}

	buyRec, err := s.loadOrCreate(buy, call.Now)
	if err != nil {
		return nil, err
	}
	sellRec, err := s.loadOrCreate(sell, call.Now)
	if err != nil {
		return nil, err
	}
	fill := settlement.FillAmount(buy.Amount, sell.Amount, req.Fill)
	fill = min(fill, buyRec.Remaining(), sellRec.Remaining())
	if fill == 0 {
		return nil, apperrors.ErrZeroAmount.Withf("nothing left to fill")
	}
	if fill < cfg.Economic.MinFill {
		return nil, apperrors.ErrBelowMinimumFill.Withf("fill %d is below minimum %d", fill, cfg.Economic.MinFill)
	}

	price := buy.Price
	buyerCollateral, err := settlement.Collateral(fill, price, cfg.Economic.BuyerCollateralBps)
	if err != nil {
		return nil, err
	}
	sellerCollateral, err := settlement.Collateral(fill, price, cfg.Economic.SellerCollateralBps)
	if err != nil {
		return nil, err
	}
	if err := s.lockForFill(call, buyRec, fill, buyerCollateral); err != nil {
		return nil, err
	}
	if err := s.lockForFill(call, sellRec, fill, sellerCollateral); err != nil {
		return nil, err
	}

	trade := &model.TradeRecord{
		ID:               s.e.newTradeID(),
		Buyer:            buy.Trader,
		Seller:           sell.Trader,
		Market:           buy.Market,
		CollateralToken:  buy.CollateralToken,
		FilledAmount:     fill,
		Price:            price,
		BuyerCollateral:  buyerCollateral,
		SellerCollateral: sellerCollateral,
		MatchTime:        call.Now,
		BuyOrder:         buyRec.Key,
		SellOrder:        sellRec.Key,
	}
	if _, exists, err := s.tx.Get(model.TradeKey(trade.ID)); err != nil {
		return nil, err
	} else if exists {
		return nil, apperrors.New(apperrors.ErrInternal, "trade id collision: "+trade.ID, nil)
	}
	if err := store.PutJSON(s.tx, model.TradeKey(trade.ID), trade); err != nil {
		return nil, err
	}
	s.emit(call.Now, "OrdersMatched", model.Fields{
		"trade_id":          trade.ID,
		"buyer":             trade.Buyer.Hex(),
		"seller":            trade.Seller.Hex(),
		"market":            trade.Market.Hex(),
		"amount":            fill,
		"price":             price,
		"buyer_collateral":  buyerCollateral,
		"seller_collateral": sellerCollateral,
		"buy_order":         buyRec.Key.Hex(),
		"sell_order":        sellRec.Key.Hex(),
	})
	return trade, nil
}

func (s *session) settle(call host.Call, id string) (*model.TradeRecord, error) {
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}
	trade, err := s.trade(id)
	if err != nil {
		return nil, err
	}
	m, err := s.market(trade.Market)
	if err != nil {
		return nil, err
	}
	if err := trade.CheckSettle(call.Signer, m.SettleTimeLimit, call.Now); err != nil {
		return nil, err
	}
	if !m.IsMapped() {
		return nil, apperrors.ErrTokenNotMapped.Withf("market %s has no real token yet", m.Symbol)
	}
	if err := s.ledgerReady(cfg); err != nil {
		return nil, err
	}

	realToken := *m.RealToken
	if err := s.e.bank.Transfer(s.tx, realToken, trade.Seller, trade.Buyer, trade.FilledAmount); err != nil {
		return nil, err
	}
	split, err := settlement.Settle(trade.FilledAmount, trade.Price, cfg.Economic.SellerRewardBps, trade.BuyerCollateral, trade.SellerCollateral)
	if err != nil {
		return nil, err
	}
	unlocked, err := settlement.Add(trade.SellerCollateral, trade.BuyerCollateral)
	if err != nil {
		return nil, err
	}
	if unlocked > 0 {
		if err := s.ledger.Credit(call, trade.Seller, trade.CollateralToken, unlocked); err != nil {
			return nil, err
		}
	}
	if split.SellerPayout > 0 {
		if err := s.ledger.TransferOut(call, trade.Seller, trade.Seller, trade.CollateralToken, split.SellerPayout); err != nil {
			return nil, err
		}
	}

	trade.MarkSettled(realToken, split.Reward, call.Now)
	if err := store.PutJSON(s.tx, model.TradeKey(trade.ID), trade); err != nil {
		return nil, err
	}
	s.released(trade.CollateralToken, "settled", unlocked)
	s.emit(call.Now, "TradeSettled", model.Fields{
		"trade_id":        trade.ID,
		"seller":          trade.Seller.Hex(),
		"buyer":           trade.Buyer.Hex(),
		"real_token":      realToken.Hex(),
		"amount":          trade.FilledAmount,
		"reward":          split.Reward,
		"seller_payout":   split.SellerPayout,
		"seller_retained": split.SellerRetained,
	})
	return trade, nil
}

func (s *session) cancelTrade(call host.Call, id string) (*model.TradeRecord, error) {
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}
	trade, err := s.trade(id)
	if err != nil {
		return nil, err
	}
	m, err := s.market(trade.Market)
	if err != nil {
		return nil, err
	}
	if err := trade.CheckCancel(call.Signer, m.SettleTimeLimit, call.Now); err != nil {
		return nil, err
	}
	if err := s.ledgerReady(cfg); err != nil {
		return nil, err
	}

	split, err := settlement.Cancel(trade.FilledAmount, trade.Price, cfg.Economic.LatePenaltyBps, trade.BuyerCollateral, trade.SellerCollateral)
	if err != nil {
		return nil, err
	}
	token := trade.CollateralToken
	if trade.BuyerCollateral > 0 {
		if err := s.ledger.Credit(call, trade.Buyer, token, trade.BuyerCollateral); err != nil {
			return nil, err
		}
	}
	if trade.SellerCollateral > 0 {
		if err := s.ledger.Credit(call, trade.Seller, token, trade.SellerCollateral); err != nil {
			return nil, err
		}
	}
	if split.Penalty > 0 {
		if err := s.ledger.MoveBetween(call, trade.Seller, trade.Buyer, token, split.Penalty); err != nil {
			return nil, err
		}
	}
	if split.BuyerPayout > 0 {
		if err := s.ledger.TransferOut(call, trade.Buyer, trade.Buyer, token, split.BuyerPayout); err != nil {
			return nil, err
		}
	}
	if split.SellerPayout > 0 {
		if err := s.ledger.TransferOut(call, trade.Seller, trade.Seller, token, split.SellerPayout); err != nil {
			return nil, err
		}
	}

	trade.MarkCancelled(split.Penalty, call.Now)
	if err := store.PutJSON(s.tx, model.TradeKey(trade.ID), trade); err != nil {
		return nil, err
	}
	s.released(token, "cancelled", trade.BuyerCollateral+trade.SellerCollateral)
	s.emit(call.Now, "TradeCancelled", model.Fields{
		"trade_id":      trade.ID,
		"buyer":         trade.Buyer.Hex(),
		"seller":        trade.Seller.Hex(),
		"penalty":       split.Penalty,
		"buyer_payout":  split.BuyerPayout,
		"seller_payout": split.SellerPayout,
	})
	return trade, nil
}

// Match pairs two signed orders and locks both sides' collateral.
func (e *Engine) Match(ctx context.Context, call host.Call, req MatchRequest) (*model.TradeRecord, error) {
	var out *model.TradeRecord
	err := e.update(ctx, call, "match", func(s *session) error {
		var err error
		out, err = s.match(call, req)
		return err
	})
	return out, err
}

// Settle delivers the real token to the buyer and releases collateral to
// the seller.
func (e *Engine) Settle(ctx context.Context, call host.Call, tradeID string) (*model.TradeRecord, error) {
	var out *model.TradeRecord
	err := e.update(ctx, call, "settle", func(s *session) error {
		var err error
		out, err = s.settle(call, tradeID)
		return err
	})
	return out, err
}

// CancelTrade unwinds a trade the seller failed to settle in time.
func (e *Engine) CancelTrade(ctx context.Context, call host.Call, tradeID string) (*model.TradeRecord, error) {
	var out *model.TradeRecord
	err := e.update(ctx, call, "cancel_trade", func(s *session) error {
		var err error
		out, err = s.cancelTrade(call, tradeID)
		return err
	})
	return out, err
}
