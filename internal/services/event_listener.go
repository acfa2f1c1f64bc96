package services

import (
	"context"
	"time"

	"nft-marketplace/internal/domain"
	"nft-marketplace/pkg/logger"

	"github.com/pkg/errors"
)

// EventListener fans auction events out to websocket viewers.
type EventListener struct {
	broadcaster domain.AuctionBroadcaster
	log         logger.Logger
}

func NewEventListener(broadcaster domain.AuctionBroadcaster, log logger.Logger) *EventListener {
	return &EventListener{
		broadcaster: broadcaster,
		log:         log,
	}
}

// Start blocks until ctx is cancelled or the subscription fails.
func (el *EventListener) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	el.log.Info("Starting event listener")
	return subscriber.SubscribeToAuctionEvents(ctx, func(event *domain.AuctionEvent) error {
		return el.HandleEvent(ctx, event)
	})
}

// Run keeps the listener subscribed, resubscribing after retry whenever Start fails.
// It returns ctx.Err() once ctx is done.
func (el *EventListener) Run(ctx context.Context, subscriber domain.EventSubscriber, retry time.Duration) error {
	for {
		err := el.Start(ctx, subscriber)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		el.log.Error("Event listener stopped, resubscribing", "error", err, "retry_in", retry)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry):
		}
	}
}

func (el *EventListener) HandleEvent(ctx context.Context, event *domain.AuctionEvent) error {
	el.log.Debug("Handling auction event", "type", event.Type, "auction_id", event.AuctionID)

	switch event.Type {
	case domain.EventBidAccepted:
		return el.handleBidAccepted(ctx, event)
	case domain.EventAuctionFinalized, domain.EventAuctionCancelled:
		return el.handleAuctionClosed(ctx, event)
	}

	return errors.Errorf("unknown event type %q", event.Type)
}

func (el *EventListener) handleBidAccepted(ctx context.Context, event *domain.AuctionEvent) error {
	return el.broadcaster.BroadcastToAuction(ctx, domain.AuctionKey(event.AuctionID, event.AuctionType), map[string]interface{}{
		"type":           "bid_update",
		"auction_id":     event.AuctionID,
		"auction_type":   event.AuctionType,
		"total_bid":      event.TotalBid,
		"end_time":       event.EndTime,
		"extended":       event.Extended,
		"bidder_address": event.BidderAddress,
		"bid_amount":     event.BidAmount,
		"timestamp":      event.Timestamp.Unix(),
	})
}

func (el *EventListener) handleAuctionClosed(ctx context.Context, event *domain.AuctionEvent) error {
	key := domain.AuctionKey(event.AuctionID, event.AuctionType)

	if err := el.broadcaster.BroadcastToAuction(ctx, key, map[string]interface{}{
		"type":         string(event.Type),
		"auction_id":   event.AuctionID,
		"auction_type": event.AuctionType,
		"total_bid":    event.TotalBid,
		"timestamp":    event.Timestamp.Unix(),
	}); err != nil {
		el.log.Error("Failed to broadcast auction closed event", "auction", key, "error", err)
		return err
	}

	return el.broadcaster.CloseAuction(ctx, key)
}
