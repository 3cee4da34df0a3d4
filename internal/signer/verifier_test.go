package signer

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
)

func TestVerifyOrderSignature(t *testing.T) {
	s := newTestSigner(t)
	v := NewVerifier(testDomain)
	order := sampleOrder(s.Address())

	sig, err := s.SignOrder(order)
	require.NoError(t, err)

	assert.NoError(t, v.Verify(order, sig))
	assert.Equal(t, testDomain.Digest(order), v.Key(order))

	// Signature produced for a different trader field.
	forged := order
	forged.Trader = common.HexToAddress("0x0000000000000000000000000000000000000001")
	err = v.Verify(forged, sig)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidSignature))

	// Tampered amount recovers some other address.
	tampered := order
	tampered.Amount = 5_000
	err = v.Verify(tampered, sig)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidSignature))

	err = v.Verify(order, sig[:64])
	assert.True(t, errors.Is(err, apperrors.ErrInvalidSignature))
}

func TestRecoverAcceptsRawRecoveryID(t *testing.T) {
	s := newTestSigner(t)
	v := NewVerifier(testDomain)
	order := sampleOrder(s.Address())

	sig, err := s.SignOrder(order)
	require.NoError(t, err)
	sig[64] -= 27

	got, err := v.Recover(order, sig)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), got)
}
