// Package proxy rotates the upstream proxies browser sessions launch through.
package proxy

import (
	"strings"
	"sync"
	"time"
)

// DefaultCooldown is how long a failed proxy is skipped
const DefaultCooldown = 5 * time.Minute

// Pool hands out proxies round-robin, skipping ones that failed recently
type Pool struct {
	proxies  []string
	index    int
	cooldown time.Duration
	failed   map[string]time.Time
	mu       sync.Mutex
	now      func() time.Time
}

// NewPool creates a pool from proxy URLs. Blank entries are ignored.
func NewPool(proxies []string, cooldown time.Duration) *Pool {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	var clean []string
	for _, p := range proxies {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}

	return &Pool{
		proxies:  clean,
		cooldown: cooldown,
		failed:   make(map[string]time.Time),
		now:      time.Now,
	}
}

// Len returns the number of configured proxies
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.proxies)
}

// Next returns the next healthy proxy, or "" when the pool is empty. When
// every proxy is cooling down, the one that failed longest ago is returned.
func (p *Pool) Next() string {
	if p == nil {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	oldest := ""
	var oldestAt time.Time
	for range p.proxies {
		proxy := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		failedAt, ok := p.failed[proxy]
		if !ok {
			return proxy
		}
		if p.now().Sub(failedAt) >= p.cooldown {
			delete(p.failed, proxy)
			return proxy
		}
		if oldest == "" || failedAt.Before(oldestAt) {
			oldest, oldestAt = proxy, failedAt
		}
	}
	return oldest
}

// MarkFailed takes a proxy out of rotation for the cooldown
func (p *Pool) MarkFailed(proxy string) {
	if p == nil || proxy == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[proxy] = p.now()
}

// MarkHealthy clears the failure status of a proxy
func (p *Pool) MarkHealthy(proxy string) {
	if p == nil || proxy == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, proxy)
}
