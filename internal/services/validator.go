package services

import (
	"strings"

	"nft-marketplace/internal/domain"
	"nft-marketplace/pkg/utils"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	MaxBidHistory    = 200
)

func invalid(format string, args ...interface{}) error {
	return errors.Wrapf(domain.ErrInvalidInput, format, args...)
}

// validateBidRequest runs before any I/O and normalizes the bidder address.
func validateBidRequest(req *domain.BidRequest) error {
	if req.AuctionID <= 0 {
		return invalid("auction id must be a positive integer")
	}
	if req.BidderAddress == "" {
		return invalid("bidder_address is required")
	}
	addr, ok := utils.NormalizeAddress(req.BidderAddress)
	if !ok {
		return invalid("bidder_address %q is not a valid address", req.BidderAddress)
	}
	req.BidderAddress = addr
	if !req.BidAmount.IsPositive() {
		return invalid("bid_amount must be positive")
	}
	if req.AuctionType == "" {
		req.AuctionType = domain.AuctionSingle
	}
	return nil
}

func validatePositivePrice(field string, price decimal.Decimal) error {
	if !price.IsPositive() {
		return invalid("%s must be positive", field)
	}
	return nil
}

func requireAddress(field, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", invalid("%s is required", field)
	}
	addr, ok := utils.NormalizeAddress(value)
	if !ok {
		return "", invalid("%s %q is not a valid address", field, value)
	}
	return addr, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
