package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type AuctionType string

const (
	AuctionSingle AuctionType = "single"
	AuctionBundle AuctionType = "bundle"
)

// ParseAuctionType maps an optional request value onto an AuctionType. Empty means single.
func ParseAuctionType(s string) (AuctionType, bool) {
	switch AuctionType(s) {
	case "", AuctionSingle:
		return AuctionSingle, true
	case AuctionBundle:
		return AuctionBundle, true
	default:
		return "", false
	}
}

type Auction struct {
	AuctionID          int64         `json:"auction_id"`
	AuctionType        AuctionType   `json:"auction_type"`
	Status             AuctionStatus `json:"status"`
	EndTime            int64         `json:"end_time"`
	TotalBid           int64         `json:"total_bid"`
	SellerAddress      string        `json:"seller_address"`
	NFTContractAddress string        `json:"nft_contract_address"`
	TokenIDs           []string      `json:"token_ids"`
	ReclaimNFT         *int64        `json:"reclaim_nft,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// TimeLeft returns the whole seconds until EndTime, never negative.
func (a *Auction) TimeLeft(now int64) int64 {
	if left := a.EndTime - now; left > 0 {
		return left
	}
	return 0
}

// IsEnded reports whether the auction no longer accepts bids at now.
func (a *Auction) IsEnded(now int64) bool {
	return a.Status != AuctionActive || now >= a.EndTime
}

// AuctionKey identifies an auction across both id spaces, e.g. "bundle:7".
func AuctionKey(auctionID int64, auctionType AuctionType) string {
	return fmt.Sprintf("%s:%d", auctionType, auctionID)
}

func (a *Auction) Key() string {
	return AuctionKey(a.AuctionID, a.AuctionType)
}

type AuctionFilter struct {
	Status        AuctionStatus
	AuctionType   AuctionType
	SellerAddress string
	Limit         int
	Offset        int
}

type BidRequest struct {
	AuctionID     int64
	AuctionType   AuctionType
	BidderAddress string
	BidAmount     decimal.Decimal
}

type BidResult struct {
	AuctionID        int64           `json:"auction_id"`
	AuctionType      AuctionType     `json:"auction_type"`
	TotalBid         int64           `json:"total_bid"`
	EndTime          int64           `json:"end_time"`
	OriginalEndTime  int64           `json:"original_end_time"`
	Extended         bool            `json:"extended"`
	ExtensionSeconds int64           `json:"extension_seconds"`
	BidderAddress    string          `json:"bidder_address"`
	BidAmount        decimal.Decimal `json:"bid_amount"`
	Timestamp        int64           `json:"timestamp"`
}

type AuctionEventType string

const (
	EventBidAccepted      AuctionEventType = "bid_accepted"
	EventAuctionFinalized AuctionEventType = "auction_finalized"
	EventAuctionCancelled AuctionEventType = "auction_cancelled"
)

// AuctionEvent is published on the event stream after a committed mutation.
type AuctionEvent struct {
	EventID       string           `json:"event_id"`
	Type          AuctionEventType `json:"type"`
	AuctionID     int64            `json:"auction_id"`
	AuctionType   AuctionType      `json:"auction_type"`
	BidderAddress string           `json:"bidder_address,omitempty"`
	BidAmount     decimal.Decimal  `json:"bid_amount"`
	TotalBid      int64            `json:"total_bid"`
	EndTime       int64            `json:"end_time"`
	Extended      bool             `json:"extended"`
	Timestamp     time.Time        `json:"timestamp"`
}

type BidRecord struct {
	EventID       string          `json:"event_id"`
	AuctionID     int64           `json:"auction_id"`
	AuctionType   AuctionType     `json:"auction_type"`
	BidderAddress string          `json:"bidder_address"`
	BidAmount     decimal.Decimal `json:"bid_amount"`
	EndTime       int64           `json:"end_time"`
	Extended      bool            `json:"extended"`
	CreatedAt     time.Time       `json:"created_at"`
}

type ListingStatus string

const (
	ListingActive    ListingStatus = "active"
	ListingSold      ListingStatus = "sold"
	ListingCancelled ListingStatus = "cancelled"
)

type Listing struct {
	ID                 string          `json:"id"`
	SellerAddress      string          `json:"seller_address"`
	NFTContractAddress string          `json:"nft_contract_address"`
	TokenID            string          `json:"token_id"`
	Price              decimal.Decimal `json:"price"`
	Currency           string          `json:"currency"`
	Status             ListingStatus   `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type ListingFilter struct {
	SellerAddress string
	Status        ListingStatus
	Limit         int
	Offset        int
}

type User struct {
	Address   string    `json:"address"`
	Username  string    `json:"username"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TokenPrice struct {
	Token     string          `json:"token"`
	Currency  string          `json:"currency"`
	Price     decimal.Decimal `json:"price"`
	FetchedAt time.Time       `json:"fetched_at"`
	Cached    bool            `json:"cached"`
}

type SyncStatus struct {
	Running          bool       `json:"running"`
	LastIndexedBlock uint64     `json:"last_indexed_block"`
	LastError        string     `json:"last_error,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	StoppedAt        *time.Time `json:"stopped_at,omitempty"`
}
