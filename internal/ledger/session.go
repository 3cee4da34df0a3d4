package ledger

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/premarket/internal/authz"
	"github.com/GoPolymarket/premarket/internal/host"
	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/store"
)

// Session is the vault bound to one store transaction.
type Session struct {
	v     *Vault
	tx    store.Tx
	batch *model.Batch
}

func (s *Session) emit(now int64, op string, fields model.Fields) {
	s.batch.Emit(s.v.id, now, op, fields)
}

func (s *Session) Config() (*model.VaultConfig, error) {
	cfg := &model.VaultConfig{}
	ok, err := store.GetJSON(s.tx, model.KeyVaultConfig, cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrNotInitialized.Withf("vault is not initialized")
	}
	return cfg, nil
}

func (s *Session) Balance(owner, token common.Address) (*model.UserBalance, error) {
	b := &model.UserBalance{Owner: owner, Token: token}
	if _, err := store.GetJSON(s.tx, model.BalanceKey(token, owner), b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Session) Custody(token common.Address) (*model.CustodyAuthority, error) {
	c := &model.CustodyAuthority{}
	ok, err := store.GetJSON(s.tx, model.CustodyKey(token), c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrCustodyNotFound.Withf("no custody record for %s", token.Hex())
	}
	return c, nil
}

func (s *Session) putBalance(b *model.UserBalance, now int64) error {
	b.UpdatedAt = now
	return store.PutJSON(s.tx, model.BalanceKey(b.Token, b.Owner), b)
}

func (s *Session) Init(call host.Call, admin, emergencyAdmin common.Address) error {
	if _, ok, err := s.tx.Get(model.KeyVaultConfig); err != nil {
		return err
	} else if ok {
		return apperrors.ErrAlreadyInitialized.Withf("vault is already initialized")
	}
	if admin == (common.Address{}) || emergencyAdmin == (common.Address{}) {
		return apperrors.ErrInvalidAddress
	}
	cfg := &model.VaultConfig{
		Admin:          admin,
		EmergencyAdmin: emergencyAdmin,
		CreatedAt:      call.Now,
	}
	if err := store.PutJSON(s.tx, model.KeyVaultConfig, cfg); err != nil {
		return err
	}
	s.emit(call.Now, "VaultInitialized", model.Fields{
		"admin":           admin.Hex(),
		"emergency_admin": emergencyAdmin.Hex(),
	})
	return nil
}

func (s *Session) AddCaller(call host.Call, id common.Address) error {
	cfg, err := s.Config()
	if err != nil {
		return err
	}
	if call.Signer != cfg.Admin {
		return apperrors.ErrUnauthorized.Withf("only the vault admin can add callers")
	}
	next, err := cfg.AuthorizedCallers.Add(id, authz.CallerListErrors)
	if err != nil {
		return err
	}
	cfg.AuthorizedCallers = next
	if err := store.PutJSON(s.tx, model.KeyVaultConfig, cfg); err != nil {
		return err
	}
	s.emit(call.Now, "CallerAdded", model.Fields{"caller": id.Hex(), "total": len(next)})
	return nil
}

func (s *Session) RemoveCaller(call host.Call, id common.Address) error {
	cfg, err := s.Config()
	if err != nil {
		return err
	}
	if call.Signer != cfg.Admin {
		return apperrors.ErrUnauthorized.Withf("only the vault admin can remove callers")
	}
	next, err := cfg.AuthorizedCallers.Remove(id, authz.CallerListErrors)
	if err != nil {
		return err
	}
	cfg.AuthorizedCallers = next
	if err := store.PutJSON(s.tx, model.KeyVaultConfig, cfg); err != nil {
		return err
	}
	s.emit(call.Now, "CallerRemoved", model.Fields{"caller": id.Hex(), "total": len(next)})
	return nil
}

func (s *Session) SetPaused(call host.Call, paused bool) error {
	cfg, err := s.Config()
	if err != nil {
		return err
	}
	if call.Signer != cfg.EmergencyAdmin {
		return apperrors.ErrUnauthorized.Withf("only the emergency admin can pause or unpause")
	}
	if paused && cfg.Paused {
		return apperrors.ErrVaultPaused
	}
	if !paused && !cfg.Paused {
		return apperrors.ErrVaultNotPaused
	}
	cfg.Paused = paused
	if err := store.PutJSON(s.tx, model.KeyVaultConfig, cfg); err != nil {
		return err
	}
	op := "VaultUnpaused"
	if paused {
		op = "VaultPaused"
	}
	s.emit(call.Now, op, model.Fields{"by": call.Signer.Hex()})
	return nil
}

// Deposit moves amount of token from the signer into custody and credits it.
func (s *Session) Deposit(call host.Call, token common.Address, amount uint64) (*model.UserBalance, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}
	if cfg.Paused {
		return nil, apperrors.ErrVaultPaused
	}
	if amount == 0 {
		return nil, apperrors.ErrZeroAmount
	}
	custody, err := s.Custody(token)
	if errors.Is(err, apperrors.ErrCustodyNotFound) {
		custody = &model.CustodyAuthority{
			Token:          token,
			CustodyAccount: model.CustodyAccount(s.v.id, token),
		}
	} else if err != nil {
		return nil, err
	}
	bal, err := s.Balance(call.Signer, token)
	if err != nil {
		return nil, err
	}
	if err := bal.Credit(amount); err != nil {
		return nil, err
	}
	if err := custody.Add(amount); err != nil {
		return nil, err
	}
	if err := s.v.bank.Transfer(s.tx, token, call.Signer, custody.CustodyAccount, amount); err != nil {
		return nil, err
	}
	if err := store.PutJSON(s.tx, model.CustodyKey(token), custody); err != nil {
		return nil, err
	}
	if err := s.putBalance(bal, call.Now); err != nil {
		return nil, err
	}
	s.emit(call.Now, "CollateralDeposited", model.Fields{
		"user":            call.Signer.Hex(),
		"token":           token.Hex(),
		"amount":          amount,
		"new_balance":     bal.Available,
		"total_custodied": custody.TotalCustodied,
	})
	return bal, nil
}

// Withdraw debits the signer's balance and pays the tokens out of custody.
func (s *Session) Withdraw(call host.Call, token common.Address, amount uint64) (*model.UserBalance, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}
	if cfg.Paused {
		return nil, apperrors.ErrVaultPaused
	}
	if amount == 0 {
		return nil, apperrors.ErrZeroAmount
	}
	bal, err := s.Balance(call.Signer, token)
	if err != nil {
		return nil, err
	}
	if err := bal.Slash(amount); err != nil {
		return nil, err
	}
	if err := s.payOut(token, call.Signer, amount); err != nil {
		return nil, err
	}
	if err := s.putBalance(bal, call.Now); err != nil {
		return nil, err
	}
	s.emit(call.Now, "CollateralWithdrawn", model.Fields{
		"user":        call.Signer.Hex(),
		"token":       token.Hex(),
		"amount":      amount,
		"new_balance": bal.Available,
	})
	return bal, nil
}

// payOut lowers the custody total and moves tokens to recipient.
func (s *Session) payOut(token, recipient common.Address, amount uint64) error {
	custody, err := s.Custody(token)
	if err != nil {
		return err
	}
	if err := custody.Sub(amount); err != nil {
		return err
	}
	if err := s.v.bank.Transfer(s.tx, token, custody.CustodyAccount, recipient, amount); err != nil {
		return err
	}
	return store.PutJSON(s.tx, model.CustodyKey(token), custody)
}
