// Package cache keeps the freshest snapshot per asset for the read-only
// API. The cache is best-effort: lookups that fail simply report a miss.
package cache

import "BarPulse/internal/domain/models"

// Quotes stores the latest snapshot under its notification key.
type Quotes interface {
	Set(key string, tick models.Tick)
	Latest(key string) (models.Tick, bool)
}
