package ledger

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/premarket/internal/host"
	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
)

// authorize runs caller detection and the allow-list check. Every
// privileged primitive calls it before touching any record.
func (s *Session) authorize(call host.Call, op string) (common.Address, error) {
	cfg, err := s.Config()
	if err != nil {
		return common.Address{}, err
	}
	caller, err := cfg.Gate().Check(call.Chain, op)
	if err != nil {
		s.v.log.Warn("privileged call rejected", "op", op, "signer", call.Signer.Hex(), "error", err.Error())
		return common.Address{}, err
	}
	return caller, nil
}

// Slash debits owner's available balance.
func (s *Session) Slash(call host.Call, owner, token common.Address, amount uint64) error {
	caller, err := s.authorize(call, "slash")
	if err != nil {
		return err
	}
	bal, err := s.Balance(owner, token)
	if err != nil {
		return err
	}
	if err := bal.Slash(amount); err != nil {
		return err
	}
	if err := s.putBalance(bal, call.Now); err != nil {
		return err
	}
	s.emit(call.Now, "BalanceSlashed", model.Fields{
		"caller":      caller.Hex(),
		"user":        owner.Hex(),
		"token":       token.Hex(),
		"amount":      amount,
		"new_balance": bal.Available,
	})
	return nil
}

// Credit adds to owner's available balance.
func (s *Session) Credit(call host.Call, owner, token common.Address, amount uint64) error {
	caller, err := s.authorize(call, "credit")
	if err != nil {
		return err
	}
	bal, err := s.Balance(owner, token)
	if err != nil {
		return err
	}
	if err := bal.Credit(amount); err != nil {
		return err
	}
	if err := s.putBalance(bal, call.Now); err != nil {
		return err
	}
	s.emit(call.Now, "BalanceCredited", model.Fields{
		"caller":      caller.Hex(),
		"user":        owner.Hex(),
		"token":       token.Hex(),
		"amount":      amount,
		"new_balance": bal.Available,
	})
	return nil
}

// TransferOut debits owner's balance and pays the tokens out of custody to
// recipient.
func (s *Session) TransferOut(call host.Call, owner, recipient, token common.Address, amount uint64) error {
	caller, err := s.authorize(call, "transfer_out")
	if err != nil {
		return err
	}
	if amount == 0 {
		return apperrors.ErrZeroAmount
	}
	bal, err := s.Balance(owner, token)
	if err != nil {
		return err
	}
	if err := bal.Slash(amount); err != nil {
		return err
	}
	if err := s.payOut(token, recipient, amount); err != nil {
		return err
	}
	if err := s.putBalance(bal, call.Now); err != nil {
		return err
	}
	s.emit(call.Now, "TokensTransferredOut", model.Fields{
		"caller":    caller.Hex(),
		"user":      owner.Hex(),
		"recipient": recipient.Hex(),
		"token":     token.Hex(),
		"amount":    amount,
	})
	return nil
}

// MoveBetween slashes from and credits to; neither applies unless both can.
func (s *Session) MoveBetween(call host.Call, from, to, token common.Address, amount uint64) error {
	caller, err := s.authorize(call, "move_between")
	if err != nil {
		return err
	}
	if from == to {
		return apperrors.ErrSameAccount
	}
	src, err := s.Balance(from, token)
	if err != nil {
		return err
	}
	dst, err := s.Balance(to, token)
	if err != nil {
		return err
	}
	if err := src.Slash(amount); err != nil {
		return err
	}
	if err := dst.Credit(amount); err != nil {
		return err
	}
	if err := s.putBalance(src, call.Now); err != nil {
		return err
	}
	if err := s.putBalance(dst, call.Now); err != nil {
		return err
	}
	s.emit(call.Now, "BalanceTransferred", model.Fields{
		"caller": caller.Hex(),
		"from":   from.Hex(),
		"to":     to.Hex(),
		"token":  token.Hex(),
		"amount": amount,
	})
	return nil
}
