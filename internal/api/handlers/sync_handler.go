package handlers

import (
	"context"
	"net/http"
	"time"

	"nft-marketplace/internal/domain"
	"nft-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type SyncController interface {
	Start(parent context.Context) error
	Stop(ctx context.Context) error
	Status() domain.SyncStatus
}

var errSyncNotConfigured = errors.Wrap(domain.ErrInvalidInput, "chain sync is not configured")

// SyncHandler exposes the chain sync lifecycle. base outlives requests and parents the
// sync run.
type SyncHandler struct {
	sync SyncController
	base context.Context
	log  logger.Logger
}

func NewSyncHandler(base context.Context, sync SyncController, log logger.Logger) *SyncHandler {
	return &SyncHandler{sync: sync, base: base, log: log}
}

func (h *SyncHandler) Status(c echo.Context) error {
	if h.sync == nil {
		return respondError(c, h.log, errSyncNotConfigured)
	}
	return ok(c, http.StatusOK, h.sync.Status())
}

func (h *SyncHandler) Start(c echo.Context) error {
	if h.sync == nil {
		return respondError(c, h.log, errSyncNotConfigured)
	}
	if err := h.sync.Start(h.base); err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, http.StatusOK, h.sync.Status())
}

func (h *SyncHandler) Stop(c echo.Context) error {
	if h.sync == nil {
		return respondError(c, h.log, errSyncNotConfigured)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.sync.Stop(ctx); err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, http.StatusOK, h.sync.Status())
}
