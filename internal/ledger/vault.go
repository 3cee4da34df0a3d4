// Package ledger is the escrow vault: per-user available balances, per-token
// custody totals and the privileged primitives other modules call through
// the caller-authorization gate.
package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/premarket/internal/bank"
	"github.com/GoPolymarket/premarket/internal/host"
	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/pkg/logger"
	"github.com/GoPolymarket/premarket/internal/pkg/metrics"
	"github.com/GoPolymarket/premarket/internal/store"
)

type Vault struct {
	id    common.Address
	store store.Store
	bank  bank.TokenBank
	sink  host.Sink
	log   *slog.Logger
}

func NewVault(id common.Address, st store.Store, tb bank.TokenBank, sink host.Sink) *Vault {
	if sink == nil {
		sink = host.NopSink{}
	}
	return &Vault{
		id:    id,
		store: st,
		bank:  tb,
		sink:  sink,
		log:   logger.With("module", "ledger", "module_id", id.Hex()),
	}
}

// ID is the module id the vault is deployed under.
func (v *Vault) ID() common.Address {
	return v.id
}

// Bind attaches the vault to an open transaction so another module can
// compose ledger operations with its own writes.
func (v *Vault) Bind(tx store.Tx, batch *model.Batch) *Session {
	return &Session{v: v, tx: tx, batch: batch}
}

func (v *Vault) update(ctx context.Context, call host.Call, op string, fn func(s *Session) error) error {
	batch := &model.Batch{}
	err := v.store.Update(ctx, func(tx store.Tx) error {
		return fn(v.Bind(tx, batch))
	})
	if err != nil {
		metrics.LedgerOps.WithLabelValues(op, "rejected").Inc()
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			metrics.Rejections.WithLabelValues(appErr.Code).Inc()
			v.log.Warn("ledger operation rejected", "op", op, "signer", call.Signer.Hex(), "code", appErr.Code, "reason", appErr.Message)
		} else {
			logger.LogError(ctx, err, "ledger operation failed", "op", op)
		}
		return err
	}
	metrics.LedgerOps.WithLabelValues(op, "ok").Inc()
	v.log.Info("ledger operation committed", "op", op, "signer", call.Signer.Hex(), "notifications", len(batch.Items()))
	v.sink.Publish(ctx, batch.Items()...)
	return nil
}

func (v *Vault) Init(ctx context.Context, call host.Call, admin, emergencyAdmin common.Address) error {
	return v.update(ctx, call, "init", func(s *Session) error {
		return s.Init(call, admin, emergencyAdmin)
	})
}

func (v *Vault) AddCaller(ctx context.Context, call host.Call, id common.Address) error {
	return v.update(ctx, call, "add_caller", func(s *Session) error {
		return s.AddCaller(call, id)
	})
}

func (v *Vault) RemoveCaller(ctx context.Context, call host.Call, id common.Address) error {
	return v.update(ctx, call, "remove_caller", func(s *Session) error {
		return s.RemoveCaller(call, id)
	})
}

func (v *Vault) Pause(ctx context.Context, call host.Call) error {
	return v.update(ctx, call, "pause", func(s *Session) error {
		return s.SetPaused(call, true)
	})
}

func (v *Vault) Unpause(ctx context.Context, call host.Call) error {
	return v.update(ctx, call, "unpause", func(s *Session) error {
		return s.SetPaused(call, false)
	})
}

func (v *Vault) Deposit(ctx context.Context, call host.Call, token common.Address, amount uint64) (*model.UserBalance, error) {
	var out *model.UserBalance
	err := v.update(ctx, call, "deposit", func(s *Session) error {
		var err error
		out, err = s.Deposit(call, token, amount)
		return err
	})
	return out, err
}

func (v *Vault) Withdraw(ctx context.Context, call host.Call, token common.Address, amount uint64) (*model.UserBalance, error) {
	var out *model.UserBalance
	err := v.update(ctx, call, "withdraw", func(s *Session) error {
		var err error
		out, err = s.Withdraw(call, token, amount)
		return err
	})
	return out, err
}

func (v *Vault) Slash(ctx context.Context, call host.Call, owner, token common.Address, amount uint64) error {
	return v.update(ctx, call, "slash", func(s *Session) error {
		return s.Slash(call, owner, token, amount)
	})
}

func (v *Vault) Credit(ctx context.Context, call host.Call, owner, token common.Address, amount uint64) error {
	return v.update(ctx, call, "credit", func(s *Session) error {
		return s.Credit(call, owner, token, amount)
	})
}

func (v *Vault) TransferOut(ctx context.Context, call host.Call, owner, recipient, token common.Address, amount uint64) error {
	return v.update(ctx, call, "transfer_out", func(s *Session) error {
		return s.TransferOut(call, owner, recipient, token, amount)
	})
}

func (v *Vault) MoveBetween(ctx context.Context, call host.Call, from, to, token common.Address, amount uint64) error {
	return v.update(ctx, call, "move_between", func(s *Session) error {
		return s.MoveBetween(call, from, to, token, amount)
	})
}

func (v *Vault) Config(ctx context.Context) (*model.VaultConfig, error) {
	var out *model.VaultConfig
	err := v.store.View(ctx, func(tx store.Tx) error {
		var err error
		out, err = v.Bind(tx, nil).Config()
		return err
	})
	return out, err
}

func (v *Vault) Balance(ctx context.Context, owner, token common.Address) (*model.UserBalance, error) {
	var out *model.UserBalance
	err := v.store.View(ctx, func(tx store.Tx) error {
		var err error
		out, err = v.Bind(tx, nil).Balance(owner, token)
		return err
	})
	return out, err
}

func (v *Vault) Custody(ctx context.Context, token common.Address) (*model.CustodyAuthority, error) {
	var out *model.CustodyAuthority
	err := v.store.View(ctx, func(tx store.Tx) error {
		var err error
		out, err = v.Bind(tx, nil).Custody(token)
		return err
	})
	return out, err
}
