package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"BarPulse/internal/domain/models"
)

// RedisQuotes stores latest snapshots in Redis as JSON with a TTL.
type RedisQuotes struct {
	cli *redis.Client
	ttl time.Duration
}

// RedisConfig holds connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisQuotes builds a Redis-backed quote cache.
func NewRedisQuotes(cfg RedisConfig) *RedisQuotes {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return &RedisQuotes{cli: rdb, ttl: cfg.TTL}
}

// Set implements Quotes.
func (r *RedisQuotes) Set(key string, tick models.Tick) {
	b, err := json.Marshal(tick)
	if err != nil {
		return
	}
	_ = r.cli.Set(context.Background(), "quote:"+key, b, r.ttl).Err()
}

// Latest implements Quotes.
func (r *RedisQuotes) Latest(key string) (models.Tick, bool) {
	b, err := r.cli.Get(context.Background(), "quote:"+key).Bytes()
	if err != nil {
		return models.Tick{}, false
	}
	var t models.Tick
	if err := json.Unmarshal(b, &t); err != nil {
		return models.Tick{}, false
	}
	return t, true
}

// Close releases the underlying client.
func (r *RedisQuotes) Close() error {
	return r.cli.Close()
}
