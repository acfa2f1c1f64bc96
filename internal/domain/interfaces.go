package domain

import (
	"context"
	"io"
	"time"
)

// BidMutator inspects and mutates a locked auction row inside the bid transaction and
// returns the bid history row committed alongside it. Returning an error rolls the
// transaction back.
type BidMutator func(auction *Auction) (*BidRecord, error)

// Repository interfaces
type AuctionRepository interface {
	GetAuction(ctx context.Context, auctionID int64, auctionType AuctionType) (*Auction, error)
	ListAuctions(ctx context.Context, filter AuctionFilter) ([]*Auction, error)
	UpsertAuction(ctx context.Context, auction *Auction) error
	// ApplyBid locks the row, runs fn and persists total_bid, end_time, updated_at and the
	// returned bid record in one transaction.
	ApplyBid(ctx context.Context, auctionID int64, auctionType AuctionType, fn BidMutator) (*Auction, error)
	// MarkExpiredEnded flips every active auction with end_time <= now to ended.
	MarkExpiredEnded(ctx context.Context, now int64) (int64, error)
	// MarkAuctionEndedIfExpired is the single-row form of MarkExpiredEnded.
	MarkAuctionEndedIfExpired(ctx context.Context, auctionID int64, auctionType AuctionType, now int64) error
	TransitionStatus(ctx context.Context, auctionID int64, auctionType AuctionType, from, to AuctionStatus) error
}

type BidRepository interface {
	GetBidHistory(ctx context.Context, auctionID int64, auctionType AuctionType, limit int) ([]*BidRecord, error)
}

type ListingRepository interface {
	CreateListing(ctx context.Context, listing *Listing) error
	GetListing(ctx context.Context, id string) (*Listing, error)
	ListListings(ctx context.Context, filter ListingFilter) ([]*Listing, error)
	UpdateListing(ctx context.Context, listing *Listing, expected ListingStatus) error
}

type UserRepository interface {
	GetUser(ctx context.Context, address string) (*User, error)
	UpsertUser(ctx context.Context, user *User) error
}

type SyncStateRepository interface {
	GetLastIndexedBlock(ctx context.Context, chainID int64) (uint64, bool, error)
	SetLastIndexedBlock(ctx context.Context, chainID int64, block uint64) error
}

// Cache interfaces
type PriceCache interface {
	GetPrice(ctx context.Context, token, currency string) (*TokenPrice, error)
	SetPrice(ctx context.Context, price *TokenPrice, ttl time.Duration) error
}

// Event interfaces
type EventPublisher interface {
	PublishAuctionEvent(ctx context.Context, event *AuctionEvent) error
}

type EventSubscriber interface {
	SubscribeToAuctionEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *AuctionEvent) error

// Notification interfaces
type AuctionBroadcaster interface {
	BroadcastToAuction(ctx context.Context, auctionKey string, message interface{}) error
	CloseAuction(ctx context.Context, auctionKey string) error
}

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// External collaborators
type PriceOracle interface {
	FetchPrice(ctx context.Context, token, currency string) (*TokenPrice, error)
}

type ContentPinner interface {
	Pin(ctx context.Context, name string, r io.Reader) (string, error)
	GatewayURL(cid string) string
}

type ChainIndexer interface {
	// Run polls the chain until ctx is cancelled, reporting each checkpoint.
	Run(ctx context.Context, progress func(block uint64)) error
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message []byte) error
	Close() error
	ID() string
	AuctionKey() string
}
