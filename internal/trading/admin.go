package trading

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/premarket/internal/authz"
	"github.com/GoPolymarket/premarket/internal/host"
	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/store"
)

func (s *session) adminConfig(call host.Call) (*model.TradeConfig, error) {
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}
	if call.Signer != cfg.Admin {
		return nil, apperrors.ErrUnauthorized.Withf("only the trading admin can do this")
	}
	return cfg, nil
}

func (s *session) init(call host.Call, admin, ledgerModule common.Address, econ model.EconomicPolicy, tech model.TechnicalPolicy) error {
	if _, ok, err := s.tx.Get(model.KeyTradeConfig); err != nil {
		return err
	} else if ok {
		return apperrors.ErrAlreadyInitialized.Withf("trading is already initialized")
	}
	if admin == (common.Address{}) || ledgerModule == (common.Address{}) {
		return apperrors.ErrInvalidAddress
	}
	if err := econ.Validate(); err != nil {
		return err
	}
	if err := tech.Validate(); err != nil {
		return err
	}
	cfg := &model.TradeConfig{
		Admin:        admin,
		LedgerModule: ledgerModule,
		Economic:     econ,
		Technical:    tech,
		CreatedAt:    call.Now,
	}
	if err := s.putConfig(cfg); err != nil {
		return err
	}
	s.emit(call.Now, "TradingInitialized", model.Fields{
		"admin":         admin.Hex(),
		"ledger_module": ledgerModule.Hex(),
	})
	return nil
}

func (s *session) createMarket(call host.Call, symbol, name string, settleWindow int64) (*model.TokenMarket, error) {
	cfg, err := s.adminConfig(call)
	if err != nil {
		return nil, err
	}
	symbol, name, err = model.NormalizeLabels(symbol, name)
	if err != nil {
		return nil, err
	}
	if !cfg.Technical.Allows(settleWindow) {
		return nil, apperrors.ErrInvalidSettleTime.Withf("settle window %ds outside [%d, %d]", settleWindow, cfg.Technical.MinSettleWindow, cfg.Technical.MaxSettleWindow)
	}
	if _, taken, err := s.tx.Get(model.SymbolKey(symbol)); err != nil {
		return nil, err
	} else if taken {
		return nil, apperrors.ErrDuplicateSymbol.Withf("symbol %s already listed", symbol)
	}

	cfg.MarketSeq++
	m := &model.TokenMarket{
		ID:              model.MarketID(cfg.Admin, symbol, cfg.MarketSeq),
		Symbol:          symbol,
		Name:            name,
		SettleTimeLimit: settleWindow,
		CreatedAt:       call.Now,
	}
	if err := store.PutJSON(s.tx, model.MarketKey(m.ID), m); err != nil {
		return nil, err
	}
	if err := store.PutJSON(s.tx, model.SymbolKey(symbol), m.ID); err != nil {
		return nil, err
	}
	if err := s.putConfig(cfg); err != nil {
		return nil, err
	}
	s.emit(call.Now, "TokenMarketCreated", model.Fields{
		"market":            m.ID.Hex(),
		"symbol":            m.Symbol,
		"name":              m.Name,
		"settle_time_limit": m.SettleTimeLimit,
	})
	return m, nil
}

func (s *session) mapToken(call host.Call, marketID, token common.Address) (*model.TokenMarket, error) {
	if _, err := s.adminConfig(call); err != nil {
		return nil, err
	}
	m, err := s.market(marketID)
	if err != nil {
		return nil, err
	}
	if err := m.Map(token, call.Now); err != nil {
		return nil, err
	}
	if err := store.PutJSON(s.tx, model.MarketKey(m.ID), m); err != nil {
		return nil, err
	}
	s.emit(call.Now, "TokenMapped", model.Fields{
		"market":     m.ID.Hex(),
		"real_token": token.Hex(),
	})
	return m, nil
}

func (s *session) setEconomic(call host.Call, p model.EconomicPolicy) error {
	cfg, err := s.adminConfig(call)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	cfg.Economic = p
	if err := s.putConfig(cfg); err != nil {
		return err
	}
	s.emit(call.Now, "EconomicPolicyUpdated", model.Fields{
		"min_fill":              p.MinFill,
		"max_order":             p.MaxOrder,
		"buyer_collateral_bps":  p.BuyerCollateralBps,
		"seller_collateral_bps": p.SellerCollateralBps,
		"seller_reward_bps":     p.SellerRewardBps,
		"late_penalty_bps":      p.LatePenaltyBps,
	})
	return nil
}

func (s *session) setTechnical(call host.Call, p model.TechnicalPolicy) error {
	cfg, err := s.adminConfig(call)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	cfg.Technical = p
	if err := s.putConfig(cfg); err != nil {
		return err
	}
	s.emit(call.Now, "TechnicalPolicyUpdated", model.Fields{
		"min_settle_window": p.MinSettleWindow,
		"max_settle_window": p.MaxSettleWindow,
	})
	return nil
}

func (s *session) setRelayer(call host.Call, relayer common.Address, add bool) error {
	cfg, err := s.adminConfig(call)
	if err != nil {
		return err
	}
	var next authz.AllowList
	op := "RelayerRemoved"
	if add {
		op = "RelayerAdded"
		next, err = cfg.Relayers.Add(relayer, authz.RelayerListErrors)
	} else {
		next, err = cfg.Relayers.Remove(relayer, authz.RelayerListErrors)
	}
	if err != nil {
		return err
	}
	cfg.Relayers = next
	if err := s.putConfig(cfg); err != nil {
		return err
	}
	s.emit(call.Now, op, model.Fields{"relayer": relayer.Hex(), "total": len(next)})
	return nil
}

func (s *session) setPaused(call host.Call, paused bool) error {
	cfg, err := s.adminConfig(call)
	if err != nil {
		return err
	}
	if paused && cfg.Paused {
		return apperrors.ErrTradingPaused
	}
	if !paused && !cfg.Paused {
		return apperrors.ErrTradingNotPaused
	}
	cfg.Paused = paused
	if err := s.putConfig(cfg); err != nil {
		return err
	}
	op := "TradingUnpaused"
	if paused {
		op = "TradingPaused"
	}
	s.emit(call.Now, op, model.Fields{"by": call.Signer.Hex()})
	return nil
}

// Init creates the trading configuration. It can run once.
func (e *Engine) Init(ctx context.Context, call host.Call, admin, ledgerModule common.Address, econ model.EconomicPolicy, tech model.TechnicalPolicy) error {
	return e.update(ctx, call, "init", func(s *session) error {
		return s.init(call, admin, ledgerModule, econ, tech)
	})
}

// CreateMarket lists a new pre-market token.
func (e *Engine) CreateMarket(ctx context.Context, call host.Call, symbol, name string, settleWindow int64) (*model.TokenMarket, error) {
	var out *model.TokenMarket
	err := e.update(ctx, call, "create_market", func(s *session) error {
		var err error
		out, err = s.createMarket(call, symbol, name, settleWindow)
		return err
	})
	return out, err
}

// MapToken attaches the real token to a market. It cannot be changed later.
func (e *Engine) MapToken(ctx context.Context, call host.Call, marketID, token common.Address) (*model.TokenMarket, error) {
	var out *model.TokenMarket
	err := e.update(ctx, call, "map_token", func(s *session) error {
		var err error
		out, err = s.mapToken(call, marketID, token)
		return err
	})
	return out, err
}

func (e *Engine) UpdateEconomicPolicy(ctx context.Context, call host.Call, p model.EconomicPolicy) error {
	return e.update(ctx, call, "update_economic_policy", func(s *session) error {
		return s.setEconomic(call, p)
	})
}

func (e *Engine) UpdateTechnicalPolicy(ctx context.Context, call host.Call, p model.TechnicalPolicy) error {
	return e.update(ctx, call, "update_technical_policy", func(s *session) error {
		return s.setTechnical(call, p)
	})
}

func (e *Engine) AddRelayer(ctx context.Context, call host.Call, relayer common.Address) error {
	return e.update(ctx, call, "add_relayer", func(s *session) error {
		return s.setRelayer(call, relayer, true)
	})
}

func (e *Engine) RemoveRelayer(ctx context.Context, call host.Call, relayer common.Address) error {
	return e.update(ctx, call, "remove_relayer", func(s *session) error {
		return s.setRelayer(call, relayer, false)
	})
}

func (e *Engine) Pause(ctx context.Context, call host.Call) error {
	return e.update(ctx, call, "pause", func(s *session) error {
		return s.setPaused(call, true)
	})
}

func (e *Engine) Unpause(ctx context.Context, call host.Call) error {
	return e.update(ctx, call, "unpause", func(s *session) error {
		return s.setPaused(call, false)
	})
}
