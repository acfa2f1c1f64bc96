package handlers

import (
	"context"
	"net/http"

	"nft-marketplace/internal/domain"
	"nft-marketplace/internal/services"
	"nft-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

type UserService interface {
	GetUser(ctx context.Context, address string) (*domain.User, error)
	UpsertProfile(ctx context.Context, address string, in services.UpdateProfileInput) (*domain.User, error)
}

type UserHandler struct {
	users UserService
	log   logger.Logger
}

func NewUserHandler(users UserService, log logger.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.users.GetUser(c.Request().Context(), c.Param("address"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, http.StatusOK, user)
}

func (h *UserHandler) UpsertUser(c echo.Context) error {
	var in services.UpdateProfileInput
	if err := c.Bind(&in); err != nil {
		return respondError(c, h.log, invalidInput("malformed request body"))
	}

	user, err := h.users.UpsertProfile(c.Request().Context(), c.Param("address"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, http.StatusOK, user)
}
