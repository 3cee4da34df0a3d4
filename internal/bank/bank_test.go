package bank

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
	"github.com/GoPolymarket/premarket/internal/store"
)

func TestTransfer(t *testing.T) {
	s := store.NewMemoryStore()
	b := NewStoreBank()
	ctx := context.Background()
	token := common.HexToAddress("0x70")
	alice := common.HexToAddress("0xa1")
	bob := common.HexToAddress("0xb0")

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		return b.Mint(tx, token, alice, 100)
	}))

	err := s.Update(ctx, func(tx store.Tx) error {
		return b.Transfer(tx, token, alice, bob, 101)
	})
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientBalance))

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		return b.Transfer(tx, token, alice, bob, 60)
	}))

	_ = s.View(ctx, func(tx store.Tx) error {
		a, _ := b.BalanceOf(tx, token, alice)
		c, _ := b.BalanceOf(tx, token, bob)
		assert.Equal(t, uint64(40), a)
		assert.Equal(t, uint64(60), c)
		return nil
	})

	err = s.Update(ctx, func(tx store.Tx) error {
		return b.Transfer(tx, token, alice, alice, 1)
	})
	assert.True(t, errors.Is(err, apperrors.ErrSameAccount))
}
