package websocket

import (
	"context"
)

type WebSocketNotifier struct {
	connManager *ConnectionManager
}

func NewWebSocketNotifier(connManager *ConnectionManager) *WebSocketNotifier {
	return &WebSocketNotifier{connManager: connManager}
}

func (n *WebSocketNotifier) BroadcastToAuction(ctx context.Context, auctionKey string, message interface{}) error {
	return n.connManager.BroadcastToAuction(auctionKey, message)
}

func (n *WebSocketNotifier) CloseAuction(ctx context.Context, auctionKey string) error {
	n.connManager.CloseAndUnregisterConnections(auctionKey)
	return nil
}
