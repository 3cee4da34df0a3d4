// Package trading is the pre-market settlement engine. It keeps the trading
// configuration, token markets, order and trade records, and moves
// collateral through the vault's privileged primitives.
package trading

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/GoPolymarket/premarket/internal/bank"
	"github.com/GoPolymarket/premarket/internal/host"
	"github.com/GoPolymarket/premarket/internal/ledger"
	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/pkg/logger"
	"github.com/GoPolymarket/premarket/internal/pkg/metrics"
	"github.com/GoPolymarket/premarket/internal/signer"
	"github.com/GoPolymarket/premarket/internal/store"
)

// OrderVerifier authenticates signed pre-orders and derives their keys.
type OrderVerifier interface {
	Key(order model.PreOrder) common.Hash
	Verify(order model.PreOrder, sig []byte) error
}

type Engine struct {
	id         common.Address
	store      store.Store
	vault      *ledger.Vault
	bank       bank.TokenBank
	verifier   OrderVerifier
	sink       host.Sink
	log        *slog.Logger
	newTradeID func() string
}

type Option func(*Engine)

// WithTradeIDs replaces the uuid trade id generator.
func WithTradeIDs(gen func() string) Option {
	return func(e *Engine) { e.newTradeID = gen }
}

func WithSink(sink host.Sink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

func WithVerifier(v OrderVerifier) Option {
	return func(e *Engine) { e.verifier = v }
}

// NewEngine wires the trading module deployed under id. Orders are verified
// against an EIP-712 domain for chainID with id as the verifying contract
// unless WithVerifier overrides it.
func NewEngine(id common.Address, chainID int64, st store.Store, vault *ledger.Vault, tb bank.TokenBank, opts ...Option) *Engine {
	e := &Engine{
		id:         id,
		store:      st,
		vault:      vault,
		bank:       tb,
		verifier:   signer.NewVerifier(signer.NewDomain(chainID, id)),
		sink:       host.NopSink{},
		log:        logger.With("module", "trading", "module_id", id.Hex()),
		newTradeID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) ID() common.Address {
	return e.id
}

// OrderKey is the content hash an order's lifecycle record is stored under.
func (e *Engine) OrderKey(order model.PreOrder) common.Hash {
	return e.verifier.Key(order)
}

// session is the engine bound to one transaction, with the vault bound to
// the same transaction and notification batch.
type session struct {
	e      *Engine
	tx     store.Tx
	batch  *model.Batch
	ledger *ledger.Session
	flows  []flow
}

// flow is a collateral movement recorded in metrics once the operation commits.
type flow struct {
	token  common.Address
	reason string
	amount uint64
}

func (s *session) emit(now int64, op string, fields model.Fields) {
	s.batch.Emit(s.e.id, now, op, fields)
}

func (s *session) locked(token common.Address, amount uint64) {
	if amount > 0 {
		s.flows = append(s.flows, flow{token: token, amount: amount})
	}
}

func (s *session) released(token common.Address, reason string, amount uint64) {
	if amount > 0 {
		s.flows = append(s.flows, flow{token: token, reason: reason, amount: amount})
	}
}

func recordFlows(flows []flow) {
	for _, f := range flows {
		if f.reason == "" {
			metrics.CollateralLocked.WithLabelValues(f.token.Hex()).Add(float64(f.amount))
			continue
		}
		metrics.CollateralReleased.WithLabelValues(f.token.Hex(), f.reason).Add(float64(f.amount))
	}
}

func (e *Engine) update(ctx context.Context, call host.Call, op string, fn func(s *session) error) error {
	batch := &model.Batch{}
	var flows []flow
	err := e.store.Update(ctx, func(tx store.Tx) error {
		s := &session{e: e, tx: tx, batch: batch, ledger: e.vault.Bind(tx, batch)}
		if err := fn(s); err != nil {
			return err
		}
		flows = s.flows
		return nil
	})
	if err != nil {
		metrics.TradingOps.WithLabelValues(op, "rejected").Inc()
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			metrics.Rejections.WithLabelValues(appErr.Code).Inc()
			e.log.Warn("trading operation rejected", "op", op, "signer", call.Signer.Hex(), "code", appErr.Code, "reason", appErr.Message)
		} else {
			logger.LogError(ctx, err, "trading operation failed", "op", op)
		}
		return err
	}
	metrics.TradingOps.WithLabelValues(op, "ok").Inc()
	recordFlows(flows)
	e.log.Info("trading operation committed", "op", op, "signer", call.Signer.Hex(), "notifications", len(batch.Items()))
	e.sink.Publish(ctx, batch.Items()...)
	return nil
}

func (e *Engine) view(ctx context.Context, fn func(s *session) error) error {
	return e.store.View(ctx, func(tx store.Tx) error {
		return fn(&session{e: e, tx: tx, ledger: e.vault.Bind(tx, nil)})
	})
}

func (s *session) config() (*model.TradeConfig, error) {
	cfg := &model.TradeConfig{}
	ok, err := store.GetJSON(s.tx, model.KeyTradeConfig, cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrNotInitialized.Withf("trading is not initialized")
	}
	return cfg, nil
}

func (s *session) putConfig(cfg *model.TradeConfig) error {
	return store.PutJSON(s.tx, model.KeyTradeConfig, cfg)
}

// ledgerReady ensures the configured ledger reference is the vault this
// engine is wired to.
func (s *session) ledgerReady(cfg *model.TradeConfig) error {
	if cfg.LedgerModule != s.e.vault.ID() {
		return apperrors.ErrLedgerModuleMismatch.Withf("configured ledger %s, wired ledger %s", cfg.LedgerModule.Hex(), s.e.vault.ID().Hex())
	}
	return nil
}

func (s *session) market(id common.Address) (*model.TokenMarket, error) {
	m := &model.TokenMarket{}
	ok, err := store.GetJSON(s.tx, model.MarketKey(id), m)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrMarketNotFound.Withf("market %s not found", id.Hex())
	}
	return m, nil
}

func (s *session) order(key common.Hash) (*model.OrderRecord, bool, error) {
	rec := &model.OrderRecord{}
	ok, err := store.GetJSON(s.tx, model.OrderKey(key), rec)
	if err != nil || !ok {
		return nil, ok, err
	}
	return rec, true, nil
}

func (s *session) trade(id string) (*model.TradeRecord, error) {
	t := &model.TradeRecord{}
	ok, err := store.GetJSON(s.tx, model.TradeKey(id), t)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrTradeNotFound.Withf("trade %s not found", id)
	}
	return t, nil
}

func (e *Engine) Config(ctx context.Context) (*model.TradeConfig, error) {
	var out *model.TradeConfig
	err := e.view(ctx, func(s *session) error {
		var err error
		out, err = s.config()
		return err
	})
	return out, err
}

func (e *Engine) Market(ctx context.Context, id common.Address) (*model.TokenMarket, error) {
	var out *model.TokenMarket
	err := e.view(ctx, func(s *session) error {
		var err error
		out, err = s.market(id)
		return err
	})
	return out, err
}

func (e *Engine) Order(ctx context.Context, key common.Hash) (*model.OrderRecord, error) {
	var out *model.OrderRecord
	err := e.view(ctx, func(s *session) error {
		rec, ok, err := s.order(key)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrOrderNotFound.Withf("order %s not found", key.Hex())
		}
		out = rec
		return nil
	})
	return out, err
}

func (e *Engine) Trade(ctx context.Context, id string) (*model.TradeRecord, error) {
	var out *model.TradeRecord
	err := e.view(ctx, func(s *session) error {
		var err error
		out, err = s.trade(id)
		return err
	})
	return out, err
}
