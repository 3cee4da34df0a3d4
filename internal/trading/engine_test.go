package trading

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPolymarket/premarket/internal/bank"
	"github.com/GoPolymarket/premarket/internal/host"
	"github.com/GoPolymarket/premarket/internal/ledger"
	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/signer"
	"github.com/GoPolymarket/premarket/internal/store"
)

const (
	chainID     = 31337
	start int64 = 1_700_000_000
	window      = int64(86_400)
)

var (
	vaultID   = common.HexToAddress("0x00000000000000000000000000000000000a0171")
	tradingID = common.HexToAddress("0x00000000000000000000000000000000000b0172")
	admin     = common.HexToAddress("0xad")
	emergency = common.HexToAddress("0xe0")
	relayer   = common.HexToAddress("0x7e")
	usdc      = common.HexToAddress("0xc0")
	realToken = common.HexToAddress("0x7070")
)

type recordingSink struct {
	items []*model.Notification
}

func (r *recordingSink) Publish(_ context.Context, items ...*model.Notification) {
	r.items = append(r.items, items...)
}

func (r *recordingSink) has(op string) bool {
	for _, n := range r.items {
		if n.Operation == op {
			return true
		}
	}
	return false
}

type harness struct {
	t      testing.TB
	ctx    context.Context
	st     *store.MemoryStore
	bank   *bank.StoreBank
	vault  *ledger.Vault
	engine *Engine
	sink   *recordingSink
	buyer  *signer.Signer
	seller *signer.Signer
	market common.Address
	nonce  uint64
	seq    int
}

func testPolicy() model.EconomicPolicy {
	p := model.DefaultEconomicPolicy()
	p.MinFill = 10
	return p
}

func newHarness(t testing.TB, econ model.EconomicPolicy) *harness {
	t.Helper()
	h := &harness{
		t:    t,
		ctx:  context.Background(),
		st:   store.NewMemoryStore(),
		bank: bank.NewStoreBank(),
		sink: &recordingSink{},
	}
	h.vault = ledger.NewVault(vaultID, h.st, h.bank, h.sink)
	h.engine = NewEngine(tradingID, chainID, h.st, h.vault, h.bank,
		WithSink(h.sink),
		WithTradeIDs(func() string {
			h.seq++
			return fmt.Sprintf("trade-%d", h.seq)
		}),
	)

	domain := signer.NewDomain(chainID, tradingID)
	h.buyer = newTrader(t, domain)
	h.seller = newTrader(t, domain)

	vaultCall := host.Call{Signer: admin, Now: start, Chain: host.Invoke(vaultID, "init")}
	require.NoError(t, h.vault.Init(h.ctx, vaultCall, admin, emergency))
	require.NoError(t, h.vault.AddCaller(h.ctx, vaultCall, tradingID))

	require.NoError(t, h.engine.Init(h.ctx, h.admin(start), admin, vaultID, econ, model.DefaultTechnicalPolicy()))
	require.NoError(t, h.engine.AddRelayer(h.ctx, h.admin(start), relayer))
	m, err := h.engine.CreateMarket(h.ctx, h.admin(start), "PRE", "Pre Token", window)
	require.NoError(t, err)
	h.market = m.ID

	for _, who := range []common.Address{h.buyer.Address(), h.seller.Address()} {
		require.NoError(t, h.st.Update(h.ctx, func(tx store.Tx) error {
			return h.bank.Mint(tx, usdc, who, 1_000_000)
		}))
	}
	return h
}

func newTrader(t testing.TB, domain *signer.Domain) *signer.Signer {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return signer.FromKey(key, domain)
}

func (h *harness) admin(now int64) host.Call {
	return host.Call{Signer: admin, Now: now, Chain: host.Invoke(tradingID, "admin")}
}

func (h *harness) relayer(now int64) host.Call {
	return host.Call{Signer: relayer, Now: now, Chain: host.Invoke(tradingID, "match")}
}

func (h *harness) as(who common.Address, now int64) host.Call {
	return host.Call{Signer: who, Now: now, Chain: host.Invoke(tradingID, "user")}
}

func (h *harness) deposit(who common.Address, amount uint64) {
	h.t.Helper()
	call := host.Call{Signer: who, Now: start, Chain: host.Invoke(vaultID, "deposit")}
	_, err := h.vault.Deposit(h.ctx, call, usdc, amount)
	require.NoError(h.t, err)
}

func (h *harness) available(who common.Address) uint64 {
	h.t.Helper()
	b, err := h.vault.Balance(h.ctx, who, usdc)
	require.NoError(h.t, err)
	return b.Available
}

func (h *harness) held(token, who common.Address) uint64 {
	h.t.Helper()
	var out uint64
	require.NoError(h.t, h.st.View(h.ctx, func(tx store.Tx) error {
		var err error
		out, err = h.bank.BalanceOf(tx, token, who)
		return err
	}))
	return out
}

func (h *harness) custodied() uint64 {
	h.t.Helper()
	c, err := h.vault.Custody(h.ctx, usdc)
	require.NoError(h.t, err)
	return c.TotalCustodied
}

func (h *harness) order(s *signer.Signer, side model.Side, amount, price uint64, now int64) (model.PreOrder, []byte) {
	h.t.Helper()
	h.nonce++
	o := model.PreOrder{
		Trader:          s.Address(),
		CollateralToken: usdc,
		Market:          h.market,
		Amount:          amount,
		Price:           price,
		Side:            side,
		Nonce:           h.nonce,
		Deadline:        now + 3600,
	}
	sig, err := s.SignOrder(o)
	require.NoError(h.t, err)
	return o, sig
}

func (h *harness) match(now int64, buyQty, buyPrice, sellQty, sellPrice uint64, fill *uint64) (*model.TradeRecord, error) {
	buy, buySig := h.order(h.buyer, model.SideBuy, buyQty, buyPrice, now)
	sell, sellSig := h.order(h.seller, model.SideSell, sellQty, sellPrice, now)
	return h.engine.Match(h.ctx, h.relayer(now), MatchRequest{Buy: buy, BuySig: buySig, Sell: sell, SellSig: sellSig, Fill: fill})
}

func (h *harness) mapRealToken() {
	h.t.Helper()
	_, err := h.engine.MapToken(h.ctx, h.admin(start), h.market, realToken)
	require.NoError(h.t, err)
}

func TestInitOnce(t *testing.T) {
	h := newHarness(t, testPolicy())
	err := h.engine.Init(h.ctx, h.admin(start), admin, vaultID, testPolicy(), model.DefaultTechnicalPolicy())
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyInitialized))

	cfg, err := h.engine.Config(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, vaultID, cfg.LedgerModule)
	assert.True(t, cfg.IsRelayer(relayer))
	assert.True(t, h.sink.has("TradingInitialized"))
}

func TestInitRejectsBadPolicy(t *testing.T) {
	st := store.NewMemoryStore()
	v := ledger.NewVault(vaultID, st, bank.NewStoreBank(), nil)
	e := NewEngine(tradingID, chainID, st, v, bank.NewStoreBank())

	bad := testPolicy()
	bad.SellerRewardBps = 1_001
	call := host.Call{Signer: admin, Now: start, Chain: host.Invoke(tradingID, "init")}
	err := e.Init(context.Background(), call, admin, vaultID, bad, model.DefaultTechnicalPolicy())
	assert.True(t, errors.Is(err, apperrors.ErrInvalidPolicy))

	_, err = e.Config(context.Background())
	assert.True(t, errors.Is(err, apperrors.ErrNotInitialized))
}

func TestCreateMarket(t *testing.T) {
	h := newHarness(t, testPolicy())

	_, err := h.engine.CreateMarket(h.ctx, h.as(h.buyer.Address(), start), "ABC", "Abc", window)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = h.engine.CreateMarket(h.ctx, h.admin(start), "pre", "Again", window)
	assert.True(t, errors.Is(err, apperrors.ErrDuplicateSymbol))

	_, err = h.engine.CreateMarket(h.ctx, h.admin(start), "TOOLONGSYMBOL", "x", window)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidSymbol))

	_, err = h.engine.CreateMarket(h.ctx, h.admin(start), "SHORT", "Short", 3_599)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidSettleTime))
	_, err = h.engine.CreateMarket(h.ctx, h.admin(start), "LONG", "Long", model.MaxSettleWindow+1)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidSettleTime))

	m, err := h.engine.CreateMarket(h.ctx, h.admin(start), "XYZ", "Xyz Token", model.MinSettleWindow)
	require.NoError(t, err)
	assert.NotEqual(t, h.market, m.ID)
	assert.False(t, m.IsMapped())

	got, err := h.engine.Market(h.ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "XYZ", got.Symbol)
}

func TestMapTokenIsOneWay(t *testing.T) {
	h := newHarness(t, testPolicy())
	h.mapRealToken()

	_, err := h.engine.MapToken(h.ctx, h.admin(start), h.market, common.HexToAddress("0x8080"))
	assert.True(t, errors.Is(err, apperrors.ErrTokenAlreadyMapped))

	m, err := h.engine.Market(h.ctx, h.market)
	require.NoError(t, err)
	assert.Equal(t, realToken, *m.RealToken)

	_, err = h.engine.MapToken(h.ctx, h.admin(start), common.HexToAddress("0xdead"), realToken)
	assert.True(t, errors.Is(err, apperrors.ErrMarketNotFound))
}

func TestPolicyUpdates(t *testing.T) {
	h := newHarness(t, testPolicy())

	p := testPolicy()
	p.MaxOrder = p.MinFill
	err := h.engine.UpdateEconomicPolicy(h.ctx, h.admin(start), p)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidPolicy))

	p = testPolicy()
	p.BuyerCollateralBps = 20_000
	require.NoError(t, h.engine.UpdateEconomicPolicy(h.ctx, h.admin(start), p))

	err = h.engine.UpdateTechnicalPolicy(h.ctx, h.admin(start), model.TechnicalPolicy{MinSettleWindow: 60, MaxSettleWindow: 7200})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidPolicy))
	require.NoError(t, h.engine.UpdateTechnicalPolicy(h.ctx, h.admin(start), model.TechnicalPolicy{MinSettleWindow: 7200, MaxSettleWindow: 86_400}))

	_, err = h.engine.CreateMarket(h.ctx, h.admin(start), "HOUR", "Hour", 3_600)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidSettleTime))

	cfg, _ := h.engine.Config(h.ctx)
	assert.Equal(t, uint64(20_000), cfg.Economic.BuyerCollateralBps)
	assert.Equal(t, int64(7200), cfg.Technical.MinSettleWindow)
}

func TestRelayerList(t *testing.T) {
	h := newHarness(t, testPolicy())

	err := h.engine.AddRelayer(h.ctx, h.admin(start), relayer)
	assert.True(t, errors.Is(err, apperrors.ErrRelayerAlreadyAdded))
	err = h.engine.AddRelayer(h.ctx, h.admin(start), common.Address{})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidAddress))

	for i := 1; i < 10; i++ {
		require.NoError(t, h.engine.AddRelayer(h.ctx, h.admin(start), common.BytesToAddress([]byte{0x99, byte(i)})))
	}
	err = h.engine.AddRelayer(h.ctx, h.admin(start), common.HexToAddress("0xffff"))
	assert.True(t, errors.Is(err, apperrors.ErrTooManyRelayers))

	require.NoError(t, h.engine.RemoveRelayer(h.ctx, h.admin(start), relayer))
	err = h.engine.RemoveRelayer(h.ctx, h.admin(start), relayer)
	assert.True(t, errors.Is(err, apperrors.ErrRelayerNotFound))

	_, err = h.match(start, 100, 100, 100, 100, nil)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorizedRelayer))
}

func TestTradingPause(t *testing.T) {
	h := newHarness(t, testPolicy())

	assert.True(t, errors.Is(h.engine.Unpause(h.ctx, h.admin(start)), apperrors.ErrTradingNotPaused))
	require.NoError(t, h.engine.Pause(h.ctx, h.admin(start)))
	assert.True(t, errors.Is(h.engine.Pause(h.ctx, h.admin(start)), apperrors.ErrTradingPaused))

	_, err := h.match(start, 100, 100, 100, 100, nil)
	assert.True(t, errors.Is(err, apperrors.ErrTradingPaused))

	require.NoError(t, h.engine.Unpause(h.ctx, h.admin(start)))
	_, err = h.match(start, 100, 100, 100, 100, nil)
	assert.NoError(t, err)
}

func TestLedgerModuleMismatch(t *testing.T) {
	h := newHarness(t, testPolicy())

	other := ledger.NewVault(common.HexToAddress("0x0bad"), h.st, h.bank, nil)
	rogue := NewEngine(tradingID, chainID, h.st, other, h.bank)
	buy, buySig := h.order(h.buyer, model.SideBuy, 100, 100, start)
	sell, sellSig := h.order(h.seller, model.SideSell, 100, 100, start)
	_, err := rogue.Match(h.ctx, h.relayer(start), MatchRequest{Buy: buy, BuySig: buySig, Sell: sell, SellSig: sellSig})
	assert.True(t, errors.Is(err, apperrors.ErrLedgerModuleMismatch))
}
