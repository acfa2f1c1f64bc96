package services

import (
	"context"
	"time"

	"nft-marketplace/internal/domain"
	"nft-marketplace/pkg/logger"
	"nft-marketplace/pkg/utils"

	"github.com/pkg/errors"
)

type BidService struct {
	auctionRepo domain.AuctionRepository
	eventPub    domain.EventPublisher
	rule        ExtensionRule
	now         func() time.Time
	log         logger.Logger
}

func NewBidService(
	auctionRepo domain.AuctionRepository,
	eventPub domain.EventPublisher,
	rule ExtensionRule,
	log logger.Logger,
) *BidService {
	return &BidService{
		auctionRepo: auctionRepo,
		eventPub:    eventPub,
		rule:        rule,
		now:         time.Now,
		log:         log,
	}
}

// PlaceBid accepts a bid: total_bid is incremented and, inside the snipe window, end_time is
// pushed to now+window. Both happen in one transaction on the locked auction row, together
// with the bid history insert.
func (s *BidService) PlaceBid(ctx context.Context, req domain.BidRequest) (*domain.BidResult, error) {
	if err := validateBidRequest(&req); err != nil {
		return nil, err
	}

	var (
		ext    Extension
		record *domain.BidRecord
	)
	auction, err := s.auctionRepo.ApplyBid(ctx, req.AuctionID, req.AuctionType, func(a *domain.Auction) (*domain.BidRecord, error) {
		// clock is read under the row lock
		now := s.now()
		if a.Status != domain.AuctionActive {
			return nil, errors.Wrapf(domain.ErrAuctionNotActive, "auction %d is %s", a.AuctionID, a.Status)
		}
		if now.Unix() >= a.EndTime {
			return nil, errors.Wrapf(domain.ErrAuctionEnded, "auction %d ended at %d", a.AuctionID, a.EndTime)
		}

		ext = s.rule.Apply(a.EndTime, now.Unix())
		a.TotalBid++
		a.EndTime = ext.NewEndTime
		a.UpdatedAt = now

		record = &domain.BidRecord{
			EventID:       utils.GenerateID("bid"),
			AuctionID:     a.AuctionID,
			AuctionType:   a.AuctionType,
			BidderAddress: req.BidderAddress,
			BidAmount:     req.BidAmount,
			EndTime:       a.EndTime,
			Extended:      ext.Extended,
			CreatedAt:     now,
		}
		return record, nil
	})
	if err != nil {
		return nil, err
	}

	result := &domain.BidResult{
		AuctionID:        auction.AuctionID,
		AuctionType:      auction.AuctionType,
		TotalBid:         auction.TotalBid,
		EndTime:          auction.EndTime,
		OriginalEndTime:  ext.OriginalEndTime,
		Extended:         ext.Extended,
		ExtensionSeconds: ext.Seconds,
		BidderAddress:    req.BidderAddress,
		BidAmount:        req.BidAmount,
		Timestamp:        record.CreatedAt.Unix(),
	}

	s.log.Info("Bid accepted", "auction_id", result.AuctionID, "auction_type", result.AuctionType,
		"bidder", result.BidderAddress, "total_bid", result.TotalBid, "extended", result.Extended,
		"end_time", result.EndTime)

	// history is already committed; the event only feeds live viewers
	s.publish(ctx, &domain.AuctionEvent{
		EventID:       record.EventID,
		Type:          domain.EventBidAccepted,
		AuctionID:     result.AuctionID,
		AuctionType:   result.AuctionType,
		BidderAddress: result.BidderAddress,
		BidAmount:     result.BidAmount,
		TotalBid:      result.TotalBid,
		EndTime:       result.EndTime,
		Extended:      result.Extended,
		Timestamp:     record.CreatedAt,
	})

	return result, nil
}

// publish runs after commit; failures are logged, never returned.
func (s *BidService) publish(ctx context.Context, event *domain.AuctionEvent) {
	if s.eventPub == nil {
		return
	}
	if err := s.eventPub.PublishAuctionEvent(ctx, event); err != nil {
		s.log.Error("Failed to publish auction event", "type", event.Type, "auction_id", event.AuctionID, "error", err)
	}
}
