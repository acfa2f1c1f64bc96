package services

import (
	"context"
	"math/big"
	"strings"
	"time"

	"nft-marketplace/internal/domain"
	"nft-marketplace/pkg/logger"
	"nft-marketplace/pkg/utils"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const DefaultListingCurrency = "ROSE"

type CreateListingInput struct {
	SellerAddress      string          `json:"seller_address"`
	NFTContractAddress string          `json:"nft_contract_address"`
	TokenID            string          `json:"token_id"`
	Price              decimal.Decimal `json:"price"`
	Currency           string          `json:"currency"`
}

type ListingService struct {
	repo domain.ListingRepository
	now  func() time.Time
	log  logger.Logger
}

func NewListingService(repo domain.ListingRepository, log logger.Logger) *ListingService {
	return &ListingService{repo: repo, now: time.Now, log: log}
}

func (s *ListingService) CreateListing(ctx context.Context, in CreateListingInput) (*domain.Listing, error) {
	seller, err := requireAddress("seller_address", in.SellerAddress)
	if err != nil {
		return nil, err
	}
	nft, err := requireAddress("nft_contract_address", in.NFTContractAddress)
	if err != nil {
		return nil, err
	}
	tokenID := strings.TrimSpace(in.TokenID)
	if id, ok := new(big.Int).SetString(tokenID, 10); !ok || id.Sign() < 0 {
		return nil, invalid("token_id must be a non-negative integer")
	}
	if err := validatePositivePrice("price", in.Price); err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = DefaultListingCurrency
	}

	now := s.now().UTC()
	listing := &domain.Listing{
		ID:                 utils.GenerateID("lst"),
		SellerAddress:      seller,
		NFTContractAddress: nft,
		TokenID:            tokenID,
		Price:              in.Price,
		Currency:           currency,
		Status:             domain.ListingActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.CreateListing(ctx, listing); err != nil {
		return nil, err
	}

	s.log.Info("Listing created", "listing_id", listing.ID, "seller", seller, "price", listing.Price.String())
	return listing, nil
}

func (s *ListingService) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalid("listing id is required")
	}
	return s.repo.GetListing(ctx, id)
}

func (s *ListingService) ListListings(ctx context.Context, filter domain.ListingFilter) ([]*domain.Listing, error) {
	if filter.SellerAddress != "" {
		addr, err := requireAddress("seller", filter.SellerAddress)
		if err != nil {
			return nil, err
		}
		filter.SellerAddress = addr
	}
	switch filter.Status {
	case "", domain.ListingActive, domain.ListingSold, domain.ListingCancelled:
	default:
		return nil, invalid("unknown listing status %q", filter.Status)
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)
	return s.repo.ListListings(ctx, filter)
}

func (s *ListingService) UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (*domain.Listing, error) {
	if err := validatePositivePrice("price", price); err != nil {
		return nil, err
	}
	return s.mutateActive(ctx, id, func(l *domain.Listing) {
		l.Price = price
	})
}

func (s *ListingService) CancelListing(ctx context.Context, id string) (*domain.Listing, error) {
	return s.mutateActive(ctx, id, func(l *domain.Listing) {
		l.Status = domain.ListingCancelled
	})
}

func (s *ListingService) mutateActive(ctx context.Context, id string, fn func(l *domain.Listing)) (*domain.Listing, error) {
	listing, err := s.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.Status != domain.ListingActive {
		return nil, errors.Wrapf(domain.ErrListingNotActive, "listing %s is %s", id, listing.Status)
	}

	fn(listing)
	listing.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateListing(ctx, listing, domain.ListingActive); err != nil {
		return nil, err
	}

	s.log.Info("Listing updated", "listing_id", id, "status", listing.Status, "price", listing.Price.String())
	return listing, nil
}
