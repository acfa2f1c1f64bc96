package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Connection wraps a gorilla connection. gorilla allows one concurrent writer, so Send
// serializes writes.
type Connection struct {
	conn       *websocket.Conn
	id         string
	auctionKey string
	writeMu    sync.Mutex
}

func NewConnection(conn *websocket.Conn, id, auctionKey string) *Connection {
	return &Connection{
		conn:       conn,
		id:         id,
		auctionKey: auctionKey,
	}
}

func (c *Connection) Send(message []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

func (c *Connection) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "auction closed"),
		time.Now().Add(writeWait))
	return c.conn.Close()
}

// ReadLoop discards client frames until the peer goes away. Pings are answered by gorilla.
func (c *Connection) ReadLoop() error {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return err
		}
	}
}

func (c *Connection) ID() string {
	return c.id
}

func (c *Connection) AuctionKey() string {
	return c.auctionKey
}
