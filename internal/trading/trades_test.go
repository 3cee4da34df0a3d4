package trading

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/store"
)

func TestMatchSmallPriceScenario(t *testing.T) {
	h := newHarness(t, testPolicy())

	trade, err := h.match(start, 50, 100, 80, 90, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), trade.FilledAmount)
	assert.Equal(t, uint64(100), trade.Price)
	// 50 * 100 / 1_000_000 truncates to zero
	assert.Zero(t, trade.BuyerCollateral)
	assert.Zero(t, trade.SellerCollateral)
	assert.False(t, trade.Settled)

	buyRec, err := h.engine.Order(h.ctx, trade.BuyOrder)
	require.NoError(t, err)
	assert.Equal(t, model.OrderFilled, buyRec.Status)
	sellRec, err := h.engine.Order(h.ctx, trade.SellOrder)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPartiallyFilled, sellRec.Status)
	assert.Equal(t, uint64(30), sellRec.Remaining())

	assert.True(t, h.sink.has("OrdersMatched"))
}

func TestMatchLocksBothSides(t *testing.T) {
	h := newHarness(t, testPolicy())
	h.deposit(h.buyer.Address(), 20_000)
	h.deposit(h.seller.Address(), 20_000)

	trade, err := h.match(start, 10_000, 500_000, 10_000, 400_000, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000), trade.Price)
	assert.Equal(t, uint64(5_000), trade.BuyerCollateral)
	assert.Equal(t, uint64(5_000), trade.SellerCollateral)

	assert.Equal(t, uint64(15_000), h.available(h.buyer.Address()))
	assert.Equal(t, uint64(15_000), h.available(h.seller.Address()))
	assert.Equal(t, uint64(40_000), h.custodied())

	report, err := h.vault.CheckSolvency(h.ctx, usdc)
	require.NoError(t, err)
	assert.True(t, report.Solvent)
	assert.Equal(t, uint64(10_000), report.Locked)

	got, err := h.engine.Trade(h.ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, trade, got)
}

func TestMatchAbortsWhenOneSideCannotLock(t *testing.T) {
	h := newHarness(t, testPolicy())
	h.deposit(h.buyer.Address(), 20_000)
	h.deposit(h.seller.Address(), 1_000)

	buy, buySig := h.order(h.buyer, model.SideBuy, 10_000, 500_000, start)
	sell, sellSig := h.order(h.seller, model.SideSell, 10_000, 500_000, start)
	_, err := h.engine.Match(h.ctx, h.relayer(start), MatchRequest{Buy: buy, BuySig: buySig, Sell: sell, SellSig: sellSig})
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientBalance))

	assert.Equal(t, uint64(20_000), h.available(h.buyer.Address()))
	assert.Equal(t, uint64(1_000), h.available(h.seller.Address()))
	_, err = h.engine.Order(h.ctx, h.engine.OrderKey(buy))
	assert.True(t, errors.Is(err, apperrors.ErrOrderNotFound))
}

func TestMatchValidation(t *testing.T) {
	h := newHarness(t, testPolicy())
	now := start

	buy, buySig := h.order(h.buyer, model.SideBuy, 100, 100, now)
	sell, sellSig := h.order(h.seller, model.SideSell, 100, 100, now)
	req := MatchRequest{Buy: buy, BuySig: buySig, Sell: sell, SellSig: sellSig}

	cases := []struct {
		name   string
		mutate func(r *MatchRequest)
		want   error
	}{
		{"wrong sides", func(r *MatchRequest) { r.Buy, r.Sell = r.Sell, r.Buy }, apperrors.ErrInvalidOrderSide},
		{"market mismatch", func(r *MatchRequest) { r.Sell.Market = common.HexToAddress("0x99") }, apperrors.ErrMarketMismatch},
		{"collateral mismatch", func(r *MatchRequest) { r.Sell.CollateralToken = common.HexToAddress("0x98") }, apperrors.ErrCollateralMismatch},
		{"self trade", func(r *MatchRequest) { r.Sell.Trader = r.Buy.Trader }, apperrors.ErrSelfTrade},
		{"crossed prices", func(r *MatchRequest) { r.Sell.Price = 101 }, apperrors.ErrInvalidPrice},
		{"zero amount", func(r *MatchRequest) { r.Buy.Amount = 0 }, apperrors.ErrZeroAmount},
		{"price too high", func(r *MatchRequest) { r.Buy.Price = 2_000_000_000_000_000_000 }, apperrors.ErrPriceTooHigh},
		{"expired", func(r *MatchRequest) { r.Buy.Deadline = now }, apperrors.ErrOrderExpired},
		{"tampered order", func(r *MatchRequest) { r.Buy.Amount = 99 }, apperrors.ErrInvalidSignature},
		{"missing signature", func(r *MatchRequest) { r.SellSig = nil }, apperrors.ErrInvalidSignature},
		{"below min fill", func(r *MatchRequest) { f := uint64(9); r.Fill = &f }, apperrors.ErrBelowMinimumFill},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := req
			tc.mutate(&r)
			_, err := h.engine.Match(h.ctx, h.relayer(now), r)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}

	big, bigSig := h.order(h.buyer, model.SideBuy, testPolicy().MaxOrder+1, 100, now)
	_, err := h.engine.Match(h.ctx, h.relayer(now), MatchRequest{Buy: big, BuySig: bigSig, Sell: sell, SellSig: sellSig})
	assert.True(t, errors.Is(err, apperrors.ErrOrderTooLarge))

	_, err = h.engine.Match(h.ctx, h.as(h.buyer.Address(), now), req)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorizedRelayer))
}

func TestMatchFillsAcrossTrades(t *testing.T) {
	h := newHarness(t, testPolicy())

	buy, buySig := h.order(h.buyer, model.SideBuy, 100, 100, start)
	sell, sellSig := h.order(h.seller, model.SideSell, 100, 100, start)
	req := MatchRequest{Buy: buy, BuySig: buySig, Sell: sell, SellSig: sellSig}

	cap60 := uint64(60)
	req.Fill = &cap60
	first, err := h.engine.Match(h.ctx, h.relayer(start), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), first.FilledAmount)

	req.Fill = nil
	second, err := h.engine.Match(h.ctx, h.relayer(start+1), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), second.FilledAmount)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = h.engine.Match(h.ctx, h.relayer(start+2), req)
	assert.True(t, errors.Is(err, apperrors.ErrOrderExpired))
}

func TestSettleDeliversAndPaysSeller(t *testing.T) {
	p := testPolicy()
	p.SellerRewardBps = 500
	h := newHarness(t, p)
	h.deposit(h.buyer.Address(), 20_000)
	h.deposit(h.seller.Address(), 20_000)
	h.mapRealToken()
	require.NoError(t, h.st.Update(h.ctx, func(tx store.Tx) error {
		return h.bank.Mint(tx, realToken, h.seller.Address(), 10_000)
	}))

	trade, err := h.match(start, 10_000, 500_000, 10_000, 500_000, nil)
	require.NoError(t, err)

	_, err = h.engine.Settle(h.ctx, h.as(h.buyer.Address(), start+10), trade.ID)
	assert.True(t, errors.Is(err, apperrors.ErrOnlySellerCanSettle))

	settled, err := h.engine.Settle(h.ctx, h.as(h.seller.Address(), start+10), trade.ID)
	require.NoError(t, err)
	assert.True(t, settled.Settled)
	assert.Equal(t, model.ResolutionSettled, settled.Resolution)
	assert.Equal(t, realToken, *settled.DeliveredToken)
	assert.Equal(t, uint64(250), settled.Reward)

	assert.Equal(t, uint64(10_000), h.held(realToken, h.buyer.Address()))
	assert.Zero(t, h.held(realToken, h.seller.Address()))
	// seller collateral 5000 + reward 250 paid out of custody
	assert.Equal(t, uint64(985_250), h.held(usdc, h.seller.Address()))
	// remaining buyer collateral 4750 stays on the seller's ledger balance
	assert.Equal(t, uint64(19_750), h.available(h.seller.Address()))
	assert.Equal(t, uint64(15_000), h.available(h.buyer.Address()))
	assert.Equal(t, uint64(34_750), h.custodied())
	assert.True(t, h.sink.has("TradeSettled"))

	_, err = h.engine.Settle(h.ctx, h.as(h.seller.Address(), start+20), trade.ID)
	assert.True(t, errors.Is(err, apperrors.ErrTradeAlreadySettled))
	_, err = h.engine.CancelTrade(h.ctx, h.as(h.buyer.Address(), start+window+1), trade.ID)
	assert.True(t, errors.Is(err, apperrors.ErrTradeAlreadySettled))
	assert.Equal(t, uint64(985_250), h.held(usdc, h.seller.Address()))
}

func TestSettleRequiresMappedTokenAndDelivery(t *testing.T) {
	h := newHarness(t, testPolicy())
	h.deposit(h.buyer.Address(), 20_000)
	h.deposit(h.seller.Address(), 20_000)

	trade, err := h.match(start, 10_000, 500_000, 10_000, 500_000, nil)
	require.NoError(t, err)

	_, err = h.engine.Settle(h.ctx, h.as(h.seller.Address(), start+1), trade.ID)
	assert.True(t, errors.Is(err, apperrors.ErrTokenNotMapped))

	h.mapRealToken()
	_, err = h.engine.Settle(h.ctx, h.as(h.seller.Address(), start+1), trade.ID)
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientBalance))
	assert.Equal(t, uint64(15_000), h.available(h.seller.Address()))

	_, err = h.engine.Settle(h.ctx, h.as(h.seller.Address(), start+1), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrTradeNotFound))
}

func TestGraceWindowBoundaries(t *testing.T) {
	h := newHarness(t, testPolicy())
	h.mapRealToken()
	require.NoError(t, h.st.Update(h.ctx, func(tx store.Tx) error {
		return h.bank.Mint(tx, realToken, h.seller.Address(), 1_000)
	}))

	trade, err := h.match(start, 100, 100, 100, 100, nil)
	require.NoError(t, err)
	deadline := trade.MatchTime + window

	_, err = h.engine.Settle(h.ctx, h.as(h.seller.Address(), deadline+1), trade.ID)
	assert.True(t, errors.Is(err, apperrors.ErrGracePeriodExpired))
	_, err = h.engine.CancelTrade(h.ctx, h.as(h.buyer.Address(), deadline-1), trade.ID)
	assert.True(t, errors.Is(err, apperrors.ErrGracePeriodActive))
	_, err = h.engine.CancelTrade(h.ctx, h.as(h.buyer.Address(), deadline), trade.ID)
	assert.True(t, errors.Is(err, apperrors.ErrGracePeriodActive))

	_, err = h.engine.Settle(h.ctx, h.as(h.seller.Address(), deadline), trade.ID)
	assert.NoError(t, err)
}

func TestCancelTradeFullPenaltyConserves(t *testing.T) {
	for _, sellerBps := range []uint64{10_000, 20_000} {
		p := testPolicy()
		p.LatePenaltyBps = 10_000
		p.SellerCollateralBps = sellerBps
		h := newHarness(t, p)
		h.deposit(h.buyer.Address(), 5_000)
		h.deposit(h.seller.Address(), 5_000)

		// value = 2000 * 0.5 = 1000
		trade, err := h.match(start, 2_000, 500_000, 2_000, 500_000, nil)
		require.NoError(t, err)
		locked := trade.BuyerCollateral + trade.SellerCollateral

		_, err = h.engine.CancelTrade(h.ctx, h.as(h.seller.Address(), start+window+1), trade.ID)
		assert.True(t, errors.Is(err, apperrors.ErrOnlyBuyerCanCancel))

		buyerBefore := h.held(usdc, h.buyer.Address())
		sellerBefore := h.held(usdc, h.seller.Address())
		cancelled, err := h.engine.CancelTrade(h.ctx, h.as(h.buyer.Address(), start+window+1), trade.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ResolutionCancelled, cancelled.Resolution)
		assert.Equal(t, uint64(1_000), cancelled.Penalty)

		buyerGot := h.held(usdc, h.buyer.Address()) - buyerBefore
		sellerGot := h.held(usdc, h.seller.Address()) - sellerBefore
		assert.Equal(t, trade.BuyerCollateral+1_000, buyerGot)
		assert.Equal(t, trade.SellerCollateral-1_000, sellerGot)
		assert.Equal(t, locked, buyerGot+sellerGot)

		assert.Equal(t, uint64(4_000), h.available(h.buyer.Address()))
		assert.Equal(t, 5_000-trade.SellerCollateral, h.available(h.seller.Address()))
		report, err := h.vault.CheckSolvency(h.ctx, usdc)
		require.NoError(t, err)
		assert.Zero(t, report.Locked)

		_, err = h.engine.CancelTrade(h.ctx, h.as(h.buyer.Address(), start+window+2), trade.ID)
		assert.True(t, errors.Is(err, apperrors.ErrTradeAlreadySettled))
		assert.True(t, h.sink.has("TradeCancelled"))
	}
}

// Custody always equals free balances plus collateral held by open trades.
func TestCollateralConservation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := testPolicy()
		p.SellerRewardBps = rapid.Uint64Range(0, 1_000).Draw(rt, "reward")
		p.LatePenaltyBps = rapid.Uint64Range(0, 10_000).Draw(rt, "penalty")
		p.SellerCollateralBps = rapid.Uint64Range(0, 20_000).Draw(rt, "seller_bps")
		h := newHarness(t, p)
		h.deposit(h.buyer.Address(), 500_000)
		h.deposit(h.seller.Address(), 500_000)
		h.mapRealToken()
		require.NoError(t, h.st.Update(h.ctx, func(tx store.Tx) error {
			return h.bank.Mint(tx, realToken, h.seller.Address(), 1_000_000)
		}))

		now := start
		var open []*model.TradeRecord
		steps := rapid.IntRange(1, 15).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			now += rapid.Int64Range(1, window/2).Draw(rt, "tick")
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0:
				qty := rapid.Uint64Range(10, 50_000).Draw(rt, "qty")
				price := rapid.Uint64Range(1, 1_000_000).Draw(rt, "price")
				trade, err := h.match(now, qty, price, qty, price, nil)
				if err == nil {
					open = append(open, trade)
				}
			case 1:
				if len(open) > 0 {
					idx := rapid.IntRange(0, len(open)-1).Draw(rt, "settle")
					if _, err := h.engine.Settle(h.ctx, h.as(h.seller.Address(), now), open[idx].ID); err == nil {
						open = append(open[:idx], open[idx+1:]...)
					}
				}
			case 2:
				if len(open) > 0 {
					idx := rapid.IntRange(0, len(open)-1).Draw(rt, "cancel")
					now = max(now, open[idx].MatchTime+window+1)
					if _, err := h.engine.CancelTrade(h.ctx, h.as(h.buyer.Address(), now), open[idx].ID); err == nil {
						open = append(open[:idx], open[idx+1:]...)
					}
				}
			}

			var held uint64
			for _, tr := range open {
				held += tr.BuyerCollateral + tr.SellerCollateral
			}
			total := h.available(h.buyer.Address()) + h.available(h.seller.Address()) + held
			if total != h.custodied() {
				rt.Fatalf("step %d: balances %d + open collateral %d != custody %d", i, total-held, held, h.custodied())
			}
		}
	})
}
