package redis

import (
	"context"
	"encoding/json"

	"nft-marketplace/internal/domain"

	"github.com/go-redis/redis/v8"
)

const AuctionEventsChannel = "auction_events"

type RedisEventPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisEventPublisher(client *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{client: client, channel: AuctionEventsChannel}
}

func (r *RedisEventPublisher) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return r.client.Publish(ctx, r.channel, payload).Err()
}
