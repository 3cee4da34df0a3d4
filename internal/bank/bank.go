// Package bank is the token-transfer primitive the ledger and the trading
// module sit on. Transfers run inside the caller's store transaction.
package bank

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/settlement"
	"github.com/GoPolymarket/premarket/internal/store"
)

type TokenBank interface {
	Transfer(tx store.Tx, token, from, to common.Address, amount uint64) error
	BalanceOf(tx store.Tx, token, owner common.Address) (uint64, error)
}

// Holding is the raw token balance of an account.
type Holding struct {
	Token  common.Address `json:"token"`
	Owner  common.Address `json:"owner"`
	Amount uint64         `json:"amount"`
}

// StoreBank keeps token holdings as records next to the ledger's own.
type StoreBank struct{}

func NewStoreBank() *StoreBank {
	return &StoreBank{}
}

func (b *StoreBank) BalanceOf(tx store.Tx, token, owner common.Address) (uint64, error) {
	h, err := loadHolding(tx, token, owner)
	if err != nil {
		return 0, err
	}
	return h.Amount, nil
}

func (b *StoreBank) Transfer(tx store.Tx, token, from, to common.Address, amount uint64) error {
	if amount == 0 {
		return apperrors.ErrZeroAmount
	}
	if from == to {
		return apperrors.ErrSameAccount
	}
	src, err := loadHolding(tx, token, from)
	if err != nil {
		return err
	}
	if src.Amount < amount {
		return apperrors.ErrInsufficientBalance.Withf("account %s holds %d of %s, need %d", from.Hex(), src.Amount, token.Hex(), amount)
	}
	dst, err := loadHolding(tx, token, to)
	if err != nil {
		return err
	}
	next, err := settlement.Add(dst.Amount, amount)
	if err != nil {
		return err
	}
	src.Amount -= amount
	dst.Amount = next
	if err := store.PutJSON(tx, model.HoldingKey(token, from), src); err != nil {
		return err
	}
	return store.PutJSON(tx, model.HoldingKey(token, to), dst)
}

// Mint creates tokens out of nothing. It backs the dev faucet and tests.
func (b *StoreBank) Mint(tx store.Tx, token, to common.Address, amount uint64) error {
	if amount == 0 {
		return apperrors.ErrZeroAmount
	}
	h, err := loadHolding(tx, token, to)
	if err != nil {
		return err
	}
	next, err := settlement.Add(h.Amount, amount)
	if err != nil {
		return err
	}
	h.Amount = next
	return store.PutJSON(tx, model.HoldingKey(token, to), h)
}

func loadHolding(tx store.Tx, token, owner common.Address) (*Holding, error) {
	h := &Holding{Token: token, Owner: owner}
	if _, err := store.GetJSON(tx, model.HoldingKey(token, owner), h); err != nil {
		return nil, fmt.Errorf("load holding: %w", err)
	}
	return h, nil
}
