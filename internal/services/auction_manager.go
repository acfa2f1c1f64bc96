package services

import (
	"context"
	"time"

	"nft-marketplace/internal/domain"
	"nft-marketplace/pkg/logger"
	"nft-marketplace/pkg/utils"

	"github.com/pkg/errors"
)

// AuctionView is an auction as served to clients, with fields derived at read time.
type AuctionView struct {
	*domain.Auction
	TimeLeft int64 `json:"time_left"`
	IsEnded  bool  `json:"is_ended"`
}

type AuctionManager struct {
	auctionRepo domain.AuctionRepository
	bidRepo     domain.BidRepository
	eventPub    domain.EventPublisher
	now         func() time.Time
	log         logger.Logger
}

func NewAuctionManager(
	auctionRepo domain.AuctionRepository,
	bidRepo domain.BidRepository,
	eventPub domain.EventPublisher,
	log logger.Logger,
) *AuctionManager {
	return &AuctionManager{
		auctionRepo: auctionRepo,
		bidRepo:     bidRepo,
		eventPub:    eventPub,
		now:         time.Now,
		log:         log,
	}
}

func (am *AuctionManager) view(a *domain.Auction, now int64) *AuctionView {
	return &AuctionView{Auction: a, TimeLeft: a.TimeLeft(now), IsEnded: a.IsEnded(now)}
}

// RefreshExpired flips every active auction past its end time to ended.
func (am *AuctionManager) RefreshExpired(ctx context.Context) (int64, error) {
	n, err := am.auctionRepo.MarkExpiredEnded(ctx, am.now().Unix())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		am.log.Info("Auctions ended", "count", n)
	}
	return n, nil
}

func (am *AuctionManager) ListAuctions(ctx context.Context, filter domain.AuctionFilter) ([]*AuctionView, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("unknown status %q", filter.Status)
	}
	if filter.SellerAddress != "" {
		addr, err := requireAddress("seller", filter.SellerAddress)
		if err != nil {
			return nil, err
		}
		filter.SellerAddress = addr
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)

	if _, err := am.RefreshExpired(ctx); err != nil {
		return nil, err
	}

	auctions, err := am.auctionRepo.ListAuctions(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := am.now().Unix()
	views := make([]*AuctionView, 0, len(auctions))
	for _, a := range auctions {
		views = append(views, am.view(a, now))
	}
	return views, nil
}

func (am *AuctionManager) GetAuction(ctx context.Context, auctionID int64, auctionType domain.AuctionType) (*AuctionView, error) {
	auction, err := am.refreshAndGet(ctx, auctionID, auctionType)
	if err != nil {
		return nil, err
	}
	return am.view(auction, am.now().Unix()), nil
}

func (am *AuctionManager) refreshAndGet(ctx context.Context, auctionID int64, auctionType domain.AuctionType) (*domain.Auction, error) {
	if auctionID <= 0 {
		return nil, invalid("auction id must be a positive integer")
	}
	if err := am.auctionRepo.MarkAuctionEndedIfExpired(ctx, auctionID, auctionType, am.now().Unix()); err != nil {
		return nil, err
	}
	return am.auctionRepo.GetAuction(ctx, auctionID, auctionType)
}

// FinalizeAuction moves an ended auction to finalized. Settlement happens on-chain.
func (am *AuctionManager) FinalizeAuction(ctx context.Context, auctionID int64, auctionType domain.AuctionType) (*AuctionView, error) {
	auction, err := am.refreshAndGet(ctx, auctionID, auctionType)
	if err != nil {
		return nil, err
	}

	switch auction.Status {
	case domain.AuctionEnded:
	case domain.AuctionActive:
		return nil, errors.Wrapf(domain.ErrAuctionNotEnded, "auction %d ends at %d", auctionID, auction.EndTime)
	default:
		return nil, errors.Wrapf(domain.ErrInvalidTransition, "auction %d is already %s", auctionID, auction.Status)
	}

	if err := am.auctionRepo.TransitionStatus(ctx, auctionID, auctionType, domain.AuctionEnded, domain.AuctionFinalized); err != nil {
		return nil, err
	}
	auction.Status = domain.AuctionFinalized
	auction.UpdatedAt = am.now()

	am.log.Info("Auction finalized", "auction_id", auctionID, "auction_type", auctionType, "total_bid", auction.TotalBid)
	am.publish(ctx, domain.EventAuctionFinalized, auction)
	return am.view(auction, am.now().Unix()), nil
}

// CancelAuction soft-cancels an auction that is still active.
func (am *AuctionManager) CancelAuction(ctx context.Context, auctionID int64, auctionType domain.AuctionType) (*AuctionView, error) {
	auction, err := am.refreshAndGet(ctx, auctionID, auctionType)
	if err != nil {
		return nil, err
	}

	if auction.Status != domain.AuctionActive {
		return nil, errors.Wrapf(domain.ErrAuctionNotActive, "auction %d is %s", auctionID, auction.Status)
	}

	if err := am.auctionRepo.TransitionStatus(ctx, auctionID, auctionType, domain.AuctionActive, domain.AuctionCancelled); err != nil {
		return nil, err
	}
	auction.Status = domain.AuctionCancelled
	auction.UpdatedAt = am.now()

	am.log.Info("Auction cancelled", "auction_id", auctionID, "auction_type", auctionType)
	am.publish(ctx, domain.EventAuctionCancelled, auction)
	return am.view(auction, am.now().Unix()), nil
}

func (am *AuctionManager) BidHistory(ctx context.Context, auctionID int64, auctionType domain.AuctionType, limit int) ([]*domain.BidRecord, error) {
	if auctionID <= 0 {
		return nil, invalid("auction id must be a positive integer")
	}
	if limit <= 0 || limit > MaxBidHistory {
		limit = MaxBidHistory
	}
	if _, err := am.auctionRepo.GetAuction(ctx, auctionID, auctionType); err != nil {
		return nil, err
	}
	return am.bidRepo.GetBidHistory(ctx, auctionID, auctionType, limit)
}

func (am *AuctionManager) publish(ctx context.Context, eventType domain.AuctionEventType, a *domain.Auction) {
	if am.eventPub == nil {
		return
	}
	event := &domain.AuctionEvent{
		EventID:     utils.GenerateID("evt"),
		Type:        eventType,
		AuctionID:   a.AuctionID,
		AuctionType: a.AuctionType,
		TotalBid:    a.TotalBid,
		EndTime:     a.EndTime,
		Timestamp:   am.now(),
	}
	if err := am.eventPub.PublishAuctionEvent(ctx, event); err != nil {
		am.log.Error("Failed to publish auction event", "type", eventType, "auction_id", a.AuctionID, "error", err)
	}
}
