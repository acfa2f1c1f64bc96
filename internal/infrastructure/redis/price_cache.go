package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"nft-marketplace/internal/domain"

	"github.com/go-redis/redis/v8"
)

type RedisPriceCache struct {
	client *redis.Client
}

func NewRedisPriceCache(client *redis.Client) *RedisPriceCache {
	return &RedisPriceCache{client: client}
}

func priceKey(token, currency string) string {
	return fmt.Sprintf("price:%s:%s", strings.ToLower(token), strings.ToLower(currency))
}

// GetPrice returns nil, nil on a cache miss.
func (r *RedisPriceCache) GetPrice(ctx context.Context, token, currency string) (*domain.TokenPrice, error) {
	result, err := r.client.Get(ctx, priceKey(token, currency)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var price domain.TokenPrice
	if err := json.Unmarshal([]byte(result), &price); err != nil {
		return nil, err
	}
	price.Cached = true
	return &price, nil
}

func (r *RedisPriceCache) SetPrice(ctx context.Context, price *domain.TokenPrice, ttl time.Duration) error {
	data, err := json.Marshal(price)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, priceKey(price.Token, price.Currency), data, ttl).Err()
}
