package service

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/GoPolymarket/premarket/internal/model"
)

// PrincipalManager 管理 API 调用方及其限流器
type PrincipalManager struct {
	mu         sync.RWMutex
	principals map[string]*model.Principal // Key: ApiKey
	limiters   map[string]*rate.Limiter    // Key: PrincipalID
	fallback   *model.Principal
}

func NewPrincipalManager(principals []*model.Principal) *PrincipalManager {
	pm := &PrincipalManager{
		principals: make(map[string]*model.Principal),
		limiters:   make(map[string]*rate.Limiter),
	}
	for _, p := range principals {
		pm.Register(p)
	}
	return pm
}

func (pm *PrincipalManager) Register(p *model.Principal) {
	if p == nil {
		return
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.principals[p.APIKey] = p

	// 0 表示不限流
	limit := rate.Limit(p.Rate.QPS)
	if limit == 0 {
		limit = rate.Inf
	}
	burst := p.Rate.Burst
	if burst == 0 {
		burst = 1
	}
	pm.limiters[p.ID] = rate.NewLimiter(limit, burst)
}

// SetFallback names the principal used for requests without an API key
// when auth.require_api_key is off.
func (pm *PrincipalManager) SetFallback(p *model.Principal) {
	pm.Register(p)
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.fallback = p
}

func (pm *PrincipalManager) Fallback() *model.Principal {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.fallback
}

func (pm *PrincipalManager) ByAPIKey(apiKey string) (*model.Principal, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	p, ok := pm.principals[apiKey]
	return p, ok
}

func (pm *PrincipalManager) Limiter(principalID string) *rate.Limiter {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.limiters[principalID]
}

func (pm *PrincipalManager) List() []*model.Principal {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	out := make([]*model.Principal, 0, len(pm.principals))
	for _, p := range pm.principals {
		out = append(out, p)
	}
	return out
}
