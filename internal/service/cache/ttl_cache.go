package cache

import (
	"sync"
	"time"

	"BarPulse/internal/domain/models"
)

type entry struct {
	tick models.Tick
	exp  time.Time
}

// TTLQuotes is an in-process quote cache used when Redis is disabled.
type TTLQuotes struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry
}

// NewTTLQuotes builds an in-memory quote cache. ttl <= 0 keeps entries
// until overwritten.
func NewTTLQuotes(ttl time.Duration) *TTLQuotes {
	return &TTLQuotes{ttl: ttl, m: make(map[string]entry)}
}

// Set implements Quotes.
func (c *TTLQuotes) Set(key string, tick models.Tick) {
	var exp time.Time
	if c.ttl > 0 {
		exp = time.Now().Add(c.ttl)
	}
	c.mu.Lock()
	c.m[key] = entry{tick: tick, exp: exp}
	c.mu.Unlock()
}

// Latest implements Quotes.
func (c *TTLQuotes) Latest(key string) (models.Tick, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return models.Tick{}, false
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return models.Tick{}, false
	}
	return e.tick, true
}
