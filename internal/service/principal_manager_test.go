package service

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/GoPolymarket/premarket/internal/model"
)

func TestPrincipalManagerLookupAndLimits(t *testing.T) {
	alice := &model.Principal{ID: "alice", APIKey: "k-alice", Address: common.HexToAddress("0xa1"), Rate: model.RateLimitConfig{QPS: 1, Burst: 2}}
	relayer := &model.Principal{ID: "relayer", APIKey: "k-relayer", Address: common.HexToAddress("0xee")}
	pm := NewPrincipalManager([]*model.Principal{alice, relayer, nil})

	got, ok := pm.ByAPIKey("k-alice")
	require.True(t, ok)
	assert.Equal(t, alice.Address, got.Address)
	_, ok = pm.ByAPIKey("nope")
	assert.False(t, ok)

	lim := pm.Limiter("alice")
	require.NotNil(t, lim)
	assert.True(t, lim.Allow())
	assert.True(t, lim.Allow())
	assert.False(t, lim.Allow())

	assert.Equal(t, rate.Inf, pm.Limiter("relayer").Limit())
	assert.Len(t, pm.List(), 2)

	assert.Nil(t, pm.Fallback())
	pm.SetFallback(relayer)
	assert.Equal(t, "relayer", pm.Fallback().ID)
}
