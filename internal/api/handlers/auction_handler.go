package handlers

import (
	"context"
	"net/http"
	"strconv"

	"nft-marketplace/internal/domain"
	"nft-marketplace/internal/services"
	"nft-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type AuctionService interface {
	ListAuctions(ctx context.Context, filter domain.AuctionFilter) ([]*services.AuctionView, error)
	GetAuction(ctx context.Context, auctionID int64, auctionType domain.AuctionType) (*services.AuctionView, error)
	FinalizeAuction(ctx context.Context, auctionID int64, auctionType domain.AuctionType) (*services.AuctionView, error)
	CancelAuction(ctx context.Context, auctionID int64, auctionType domain.AuctionType) (*services.AuctionView, error)
	BidHistory(ctx context.Context, auctionID int64, auctionType domain.AuctionType, limit int) ([]*domain.BidRecord, error)
}

type BidPlacer interface {
	PlaceBid(ctx context.Context, req domain.BidRequest) (*domain.BidResult, error)
}

type AuctionHandler struct {
	auctions AuctionService
	bids     BidPlacer
	log      logger.Logger
}

type PlaceBidRequest struct {
	BidderAddress string          `json:"bidder_address"`
	BidAmount     decimal.Decimal `json:"bid_amount"`
	AuctionType   string          `json:"auction_type"`
}

func NewAuctionHandler(auctions AuctionService, bids BidPlacer, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		auctions: auctions,
		bids:     bids,
		log:      log,
	}
}

func invalidInput(format string, args ...interface{}) error {
	return errors.Wrapf(domain.ErrInvalidInput, format, args...)
}

// auctionRef reads the :id path parameter and the optional auction_type query parameter.
func auctionRef(c echo.Context, auctionType string) (int64, domain.AuctionType, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, "", invalidInput("auction id %q must be a positive integer", c.Param("id"))
	}
	if auctionType == "" {
		auctionType = c.QueryParam("auction_type")
	}
	t, ok := domain.ParseAuctionType(auctionType)
	if !ok {
		return 0, "", invalidInput("unknown auction_type %q", auctionType)
	}
	return id, t, nil
}

func (h *AuctionHandler) PlaceBid(c echo.Context) error {
	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, h.log, invalidInput("malformed request body"))
	}

	id, auctionType, err := auctionRef(c, req.AuctionType)
	if err != nil {
		return respondError(c, h.log, err)
	}

	result, err := h.bids.PlaceBid(c.Request().Context(), domain.BidRequest{
		AuctionID:     id,
		AuctionType:   auctionType,
		BidderAddress: req.BidderAddress,
		BidAmount:     req.BidAmount,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, http.StatusOK, result)
}

func (h *AuctionHandler) FinalizeAuction(c echo.Context) error {
	id, auctionType, err := auctionRef(c, "")
	if err != nil {
		return respondError(c, h.log, err)
	}

	view, err := h.auctions.FinalizeAuction(c.Request().Context(), id, auctionType)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, http.StatusOK, view)
}

func (h *AuctionHandler) CancelAuction(c echo.Context) error {
	id, auctionType, err := auctionRef(c, "")
	if err != nil {
		return respondError(c, h.log, err)
	}

	view, err := h.auctions.CancelAuction(c.Request().Context(), id, auctionType)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, http.StatusOK, view)
}

func (h *AuctionHandler) GetAuction(c echo.Context) error {
	id, auctionType, err := auctionRef(c, "")
	if err != nil {
		return respondError(c, h.log, err)
	}

	view, err := h.auctions.GetAuction(c.Request().Context(), id, auctionType)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, http.StatusOK, view)
}

func (h *AuctionHandler) ListAuctions(c echo.Context) error {
	var filter domain.AuctionFilter
	var status, auctionType string
	if err := echo.QueryParamsBinder(c).
		String("status", &status).
		String("auction_type", &auctionType).
		String("seller", &filter.SellerAddress).
		Int("limit", &filter.Limit).
		Int("offset", &filter.Offset).
		BindError(); err != nil {
		return respondError(c, h.log, invalidInput("malformed query: %v", err))
	}
	filter.Status = domain.AuctionStatus(status)
	if auctionType != "" {
		t, valid := domain.ParseAuctionType(auctionType)
		if !valid {
			return respondError(c, h.log, invalidInput("unknown auction_type %q", auctionType))
		}
		filter.AuctionType = t
	}

	views, err := h.auctions.ListAuctions(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, http.StatusOK, views)
}

func (h *AuctionHandler) BidHistory(c echo.Context) error {
	id, auctionType, err := auctionRef(c, "")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var limit int
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return respondError(c, h.log, invalidInput("malformed limit"))
	}

	history, err := h.auctions.BidHistory(c.Request().Context(), id, auctionType, limit)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, http.StatusOK, history)
}
