package model

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/premarket/internal/authz"
	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/settlement"
)

// VaultConfig is the single configuration aggregate of the ledger.
type VaultConfig struct {
	Admin             common.Address  `json:"admin"`
	EmergencyAdmin    common.Address  `json:"emergency_admin"`
	Paused            bool            `json:"paused"`
	AuthorizedCallers authz.AllowList `json:"authorized_callers"`
	CreatedAt         int64           `json:"created_at"`
}

func (c *VaultConfig) Gate() authz.Gate {
	return authz.Gate{Paused: c.Paused, Callers: c.AuthorizedCallers}
}

// UserBalance is the available balance of one owner for one token.
type UserBalance struct {
	Owner     common.Address `json:"owner"`
	Token     common.Address `json:"token"`
	Available uint64         `json:"available"`
	UpdatedAt int64          `json:"updated_at"`
}

// Credit adds amount. On error the balance is unchanged.
func (b *UserBalance) Credit(amount uint64) error {
	if amount == 0 {
		return apperrors.ErrZeroAmount
	}
	next, err := settlement.Add(b.Available, amount)
	if err != nil {
		return apperrors.ErrOverflow.Withf("credit %d to balance %d overflows", amount, b.Available)
	}
	b.Available = next
	return nil
}

// Slash removes amount. On error the balance is unchanged.
func (b *UserBalance) Slash(amount uint64) error {
	if amount == 0 {
		return apperrors.ErrZeroAmount
	}
	if b.Available < amount {
		return apperrors.ErrInsufficientBalance.Withf("slash %d from balance %d", amount, b.Available)
	}
	b.Available -= amount
	return nil
}

// CustodyAuthority tracks how much of a token the vault physically holds.
type CustodyAuthority struct {
	Token          common.Address `json:"token"`
	CustodyAccount common.Address `json:"custody_account"`
	TotalCustodied uint64         `json:"total_custodied"`
}

func (c *CustodyAuthority) Add(amount uint64) error {
	next, err := settlement.Add(c.TotalCustodied, amount)
	if err != nil {
		return apperrors.ErrOverflow.Withf("custody of %s overflows", c.Token.Hex())
	}
	c.TotalCustodied = next
	return nil
}

func (c *CustodyAuthority) Sub(amount uint64) error {
	if c.TotalCustodied < amount {
		return apperrors.ErrInsufficientBalance.Withf("custody of %s holds %d, need %d", c.Token.Hex(), c.TotalCustodied, amount)
	}
	c.TotalCustodied -= amount
	return nil
}
