package handlers

import (
	"context"
	"net/http"

	"nft-marketplace/internal/domain"
	"nft-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

type PriceService interface {
	GetPrice(ctx context.Context, currency string) (*domain.TokenPrice, error)
}

type UploadResult struct {
	CID  string `json:"cid"`
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// MarketHandler serves the supporting endpoints of the marketplace frontend.
type MarketHandler struct {
	prices PriceService
	pinner domain.ContentPinner
	log    logger.Logger
}

func NewMarketHandler(prices PriceService, pinner domain.ContentPinner, log logger.Logger) *MarketHandler {
	return &MarketHandler{prices: prices, pinner: pinner, log: log}
}

func (h *MarketHandler) GetPrice(c echo.Context) error {
	price, err := h.prices.GetPrice(c.Request().Context(), c.QueryParam("currency"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, http.StatusOK, price)
}

// Upload pins the multipart field "file" to IPFS.
func (h *MarketHandler) Upload(c echo.Context) error {
	header, err := c.FormFile("file")
	if err != nil {
		return respondError(c, h.log, invalidInput("multipart field \"file\" is required"))
	}
	if header.Size == 0 {
		return respondError(c, h.log, invalidInput("file is empty"))
	}

	file, err := header.Open()
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer file.Close()

	cid, err := h.pinner.Pin(c.Request().Context(), header.Filename, file)
	if err != nil {
		return respondError(c, h.log, err)
	}

	h.log.Info("File pinned", "cid", cid, "name", header.Filename, "size", header.Size)
	return ok(c, http.StatusOK, UploadResult{
		CID:  cid,
		URL:  h.pinner.GatewayURL(cid),
		Name: header.Filename,
		Size: header.Size,
	})
}
