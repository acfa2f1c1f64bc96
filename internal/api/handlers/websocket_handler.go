package handlers

import (
	"encoding/json"
	"net/http"

	"nft-marketplace/internal/domain"
	ws "nft-marketplace/internal/infrastructure/websocket"
	"nft-marketplace/pkg/logger"
	"nft-marketplace/pkg/utils"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced by the API middleware
	},
}

// WebSocketHandler streams auction events to viewers of a single auction.
type WebSocketHandler struct {
	auctions    AuctionService
	connManager *ws.ConnectionManager
	log         logger.Logger
}

func NewWebSocketHandler(auctions AuctionService, connManager *ws.ConnectionManager, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		auctions:    auctions,
		connManager: connManager,
		log:         log,
	}
}

func (h *WebSocketHandler) HandleConnection(c echo.Context) error {
	id, auctionType, err := auctionRef(c, "")
	if err != nil {
		return respondError(c, h.log, err)
	}

	view, err := h.auctions.GetAuction(c.Request().Context(), id, auctionType)
	if err != nil {
		return respondError(c, h.log, err)
	}
	// ended auctions stay watchable until finalized
	if view.Status.Terminal() {
		return respondError(c, h.log, errors.Wrapf(domain.ErrAuctionNotActive, "auction %d is %s", id, view.Status))
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		h.log.Error("Failed to upgrade connection", "error", err)
		return nil
	}

	wsConn := ws.NewConnection(conn, utils.GenerateID("ws"), view.Key())
	h.connManager.RegisterConnection(wsConn)
	defer func() {
		h.connManager.UnregisterConnection(wsConn)
		_ = conn.Close()
	}()

	snapshot, err := json.Marshal(map[string]interface{}{"type": "snapshot", "auction": view})
	if err != nil {
		return nil
	}
	if err := wsConn.Send(snapshot); err != nil {
		h.log.Error("Failed to send snapshot", "conn_id", wsConn.ID(), "error", err)
		return nil
	}

	if err := wsConn.ReadLoop(); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		h.log.Debug("WebSocket closed", "conn_id", wsConn.ID(), "error", err)
	}
	return nil
}
