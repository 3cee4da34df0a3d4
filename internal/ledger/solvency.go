package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/premarket/internal/model"
	"github.com/GoPolymarket/premarket/internal/settlement"
	"github.com/GoPolymarket/premarket/internal/store"
)

// SolvencyReport compares the ledger's claims on a token with its custody.
type SolvencyReport struct {
	Token          common.Address `json:"token"`
	Accounts       int            `json:"accounts"`
	TotalAvailable uint64         `json:"total_available"`
	TotalCustodied uint64         `json:"total_custodied"`
	// Locked is the value held as in-flight collateral.
	Locked  uint64 `json:"locked"`
	Solvent bool   `json:"solvent"`
}

// Solvency scans every balance of token and checks
// sum(available) <= total_custodied.
func (s *Session) Solvency(token common.Address) (*SolvencyReport, error) {
	report := &SolvencyReport{Token: token}
	custody, err := s.Custody(token)
	if err == nil {
		report.TotalCustodied = custody.TotalCustodied
	}
	overflow := false
	err = s.tx.Scan(model.BalancePrefix(token), func(key string, raw []byte) error {
		var b model.UserBalance
		if err := json.Unmarshal(raw, &b); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		report.Accounts++
		sum, err := settlement.Add(report.TotalAvailable, b.Available)
		if err != nil {
			overflow = true
			return nil
		}
		report.TotalAvailable = sum
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.Solvent = !overflow && report.TotalAvailable <= report.TotalCustodied
	if report.Solvent {
		report.Locked = report.TotalCustodied - report.TotalAvailable
	}
	return report, nil
}

// CustodiedTokens lists every token that has a custody record.
func (s *Session) CustodiedTokens() ([]common.Address, error) {
	var tokens []common.Address
	err := s.tx.Scan(model.PrefixCustody, func(key string, raw []byte) error {
		var c model.CustodyAuthority
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		tokens = append(tokens, c.Token)
		return nil
	})
	return tokens, err
}

func (v *Vault) CheckSolvency(ctx context.Context, token common.Address) (*SolvencyReport, error) {
	var out *SolvencyReport
	err := v.store.View(ctx, func(tx store.Tx) error {
		var err error
		out, err = v.Bind(tx, nil).Solvency(token)
		return err
	})
	return out, err
}

// CheckAllSolvency reports on every custodied token.
func (v *Vault) CheckAllSolvency(ctx context.Context) ([]*SolvencyReport, error) {
	var out []*SolvencyReport
	err := v.store.View(ctx, func(tx store.Tx) error {
		s := v.Bind(tx, nil)
		tokens, err := s.CustodiedTokens()
		if err != nil {
			return err
		}
		for _, token := range tokens {
			r, err := s.Solvency(token)
			if err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}
