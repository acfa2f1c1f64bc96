package websocket

import (
	"encoding/json"
	"sync"

	"nft-marketplace/internal/domain"
	"nft-marketplace/pkg/logger"
)

type ConnectionManager struct {
	connections map[string]map[string]domain.WebSocketConnection // auctionKey -> connID -> connection
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[string]domain.WebSocketConnection),
		log:         log,
	}
}

func (cm *ConnectionManager) RegisterConnection(conn domain.WebSocketConnection) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	key := conn.AuctionKey()
	if cm.connections[key] == nil {
		cm.connections[key] = make(map[string]domain.WebSocketConnection)
	}
	cm.connections[key][conn.ID()] = conn

	cm.log.Info("Connection registered", "conn_id", conn.ID(), "auction", key)
}

func (cm *ConnectionManager) UnregisterConnection(conn domain.WebSocketConnection) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	key := conn.AuctionKey()
	if auctionConns, exists := cm.connections[key]; exists {
		delete(auctionConns, conn.ID())
		if len(auctionConns) == 0 {
			delete(cm.connections, key)
		}
	}

	cm.log.Info("Connection unregistered", "conn_id", conn.ID(), "auction", key)
}

// CloseAndUnregisterConnections closes every viewer of the auction. Close errors are logged.
func (cm *ConnectionManager) CloseAndUnregisterConnections(auctionKey string) {
	cm.mutex.Lock()
	auctionConns := cm.connections[auctionKey]
	delete(cm.connections, auctionKey)
	cm.mutex.Unlock()

	for connID, conn := range auctionConns {
		if err := conn.Close(); err != nil {
			cm.log.Error("Failed to close connection", "conn_id", connID, "auction", auctionKey, "error", err)
		}
	}

	cm.log.Info("Connections closed for auction", "auction", auctionKey, "count", len(auctionConns))
}

func (cm *ConnectionManager) GetConnectionsForAuction(auctionKey string) []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	connections := make([]domain.WebSocketConnection, 0, len(cm.connections[auctionKey]))
	for _, conn := range cm.connections[auctionKey] {
		connections = append(connections, conn)
	}

	return connections
}

// BroadcastToAuction sends message as JSON to every viewer. A failed send does not stop the
// broadcast.
func (cm *ConnectionManager) BroadcastToAuction(auctionKey string, message interface{}) error {
	connections := cm.GetConnectionsForAuction(auctionKey)
	if len(connections) == 0 {
		return nil
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	for _, conn := range connections {
		if err := conn.Send(messageBytes); err != nil {
			cm.log.Error("Failed to send message", "conn_id", conn.ID(), "auction", auctionKey, "error", err)
		}
	}

	cm.log.Debug("Broadcast to auction", "auction", auctionKey, "connections", len(connections))
	return nil
}
