package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache guarda snapshots de aposta no Redis com TTL curto.
// Mutação de aposta invalida a chave para o GET seguinte remontar do banco.
type Cache struct{ R *redis.Client }

func New(r *redis.Client) *Cache { return &Cache{R: r} }

func keyBet(betID string) string { return "bet:snapshot:" + betID }

func (c *Cache) GetBet(ctx context.Context, betID string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, keyBet(betID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) SetBet(ctx context.Context, betID string, v any, ttl time.Duration) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, keyBet(betID), b, ttl).Err()
}

func (c *Cache) InvalidateBet(ctx context.Context, betID string) error {
	return c.R.Del(ctx, keyBet(betID)).Err()
}
