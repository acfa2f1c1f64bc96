package handlers

import (
	"context"
	"net/http"

	"nft-marketplace/internal/domain"
	"nft-marketplace/internal/services"
	"nft-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ListingService interface {
	CreateListing(ctx context.Context, in services.CreateListingInput) (*domain.Listing, error)
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	ListListings(ctx context.Context, filter domain.ListingFilter) ([]*domain.Listing, error)
	UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (*domain.Listing, error)
	CancelListing(ctx context.Context, id string) (*domain.Listing, error)
}

type ListingHandler struct {
	listings ListingService
	log      logger.Logger
}

type UpdateListingRequest struct {
	Price decimal.Decimal `json:"price"`
}

func NewListingHandler(listings ListingService, log logger.Logger) *ListingHandler {
	return &ListingHandler{listings: listings, log: log}
}

func (h *ListingHandler) CreateListing(c echo.Context) error {
	var in services.CreateListingInput
	if err := c.Bind(&in); err != nil {
		return respondError(c, h.log, invalidInput("malformed request body"))
	}

	listing, err := h.listings.CreateListing(c.Request().Context(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, http.StatusCreated, listing)
}

func (h *ListingHandler) GetListing(c echo.Context) error {
	listing, err := h.listings.GetListing(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, http.StatusOK, listing)
}

func (h *ListingHandler) ListListings(c echo.Context) error {
	var filter domain.ListingFilter
	var status string
	if err := echo.QueryParamsBinder(c).
		String("seller", &filter.SellerAddress).
		String("status", &status).
		Int("limit", &filter.Limit).
		Int("offset", &filter.Offset).
		BindError(); err != nil {
		return respondError(c, h.log, invalidInput("malformed query: %v", err))
	}
	filter.Status = domain.ListingStatus(status)

	listings, err := h.listings.ListListings(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, http.StatusOK, listings)
}

func (h *ListingHandler) UpdateListing(c echo.Context) error {
	var req UpdateListingRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, h.log, invalidInput("malformed request body"))
	}

	listing, err := h.listings.UpdatePrice(c.Request().Context(), c.Param("id"), req.Price)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, http.StatusOK, listing)
}

func (h *ListingHandler) CancelListing(c echo.Context) error {
	listing, err := h.listings.CancelListing(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, http.StatusOK, listing)
}
