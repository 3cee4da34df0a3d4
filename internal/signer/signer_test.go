package signer

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPolymarket/premarket/internal/model"
)

var testDomain = NewDomain(137, common.HexToAddress("0x00000000000000000000000000000000000b0172"))

func newTestSigner(t testing.TB) *Signer {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyHex := hexutil.Encode(crypto.FromECDSA(key))[2:] // Remove 0x
	s, err := NewSigner(keyHex, testDomain)
	require.NoError(t, err)
	return s
}

func sampleOrder(trader common.Address) model.PreOrder {
	return model.PreOrder{
		Trader:          trader,
		CollateralToken: common.HexToAddress("0xc0"),
		Market:          common.HexToAddress("0x3a"),
		Amount:          50,
		Price:           100,
		Side:            model.SideBuy,
		Nonce:           1,
		Deadline:        1_800_000_000,
	}
}

func TestSigner_SignOrder(t *testing.T) {
	s := newTestSigner(t)
	sig, err := s.SignOrder(sampleOrder(s.Address()))
	assert.NoError(t, err)
	assert.Len(t, sig, 65)
	assert.True(t, sig[64] == 27 || sig[64] == 28)
}

func TestNewSignerRejectsBadKey(t *testing.T) {
	_, err := NewSigner("", testDomain)
	assert.Error(t, err)
	_, err = NewSigner("0xzz", testDomain)
	assert.Error(t, err)
}

func TestDigestDependsOnEveryField(t *testing.T) {
	base := sampleOrder(common.HexToAddress("0xa1"))
	seen := map[common.Hash]string{testDomain.Digest(base): "base"}

	mutations := map[string]func(o *model.PreOrder){
		"trader":     func(o *model.PreOrder) { o.Trader = common.HexToAddress("0xa2") },
		"collateral": func(o *model.PreOrder) { o.CollateralToken = common.HexToAddress("0xc1") },
		"market":     func(o *model.PreOrder) { o.Market = common.HexToAddress("0x3b") },
		"amount":     func(o *model.PreOrder) { o.Amount++ },
		"price":      func(o *model.PreOrder) { o.Price++ },
		"side":       func(o *model.PreOrder) { o.Side = model.SideSell },
		"nonce":      func(o *model.PreOrder) { o.Nonce++ },
		"deadline":   func(o *model.PreOrder) { o.Deadline++ },
	}
	for name, mutate := range mutations {
		o := base
		mutate(&o)
		d := testDomain.Digest(o)
		prev, dup := seen[d]
		assert.False(t, dup, "%s collides with %s", name, prev)
		seen[d] = name
	}

	other := NewDomain(1, testDomain.VerifyingContract)
	assert.NotEqual(t, testDomain.Digest(base), other.Digest(base))
}

func BenchmarkSignOrder(b *testing.B) {
	s := newTestSigner(b)
	order := sampleOrder(s.Address())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.SignOrder(order)
	}
}
