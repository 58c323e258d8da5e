package websocket

import (
	"encoding/json"
	"log"
	"time"

	"isuku-backend/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // must stay below pongWait

	// Clients only send keepalive pings.
	maxMessageSize = 512
)

// Client is one subscriber to the schedule feed.
type Client struct {
	Actor models.Actor
	conn  *websocket.Conn
	hub   *Hub
	send  chan []byte
}

// clientMessage is the only shape a subscriber sends: {"type":"ping"}.
type clientMessage struct {
	Type string `json:"type"`
}

func NewClient(actor models.Actor, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		Actor: actor,
		conn:  conn,
		hub:   hub,
		send:  make(chan []byte, 256),
	}
}

// ReadPump reads keepalive traffic until the connection closes, then
// unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ WebSocket error for %s: %v", c.Actor.Email, err)
			}
			break
		}

		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.Type != "ping" {
			continue
		}
		pong, _ := json.Marshal(map[string]interface{}{
			"type":      "pong",
			"timestamp": time.Now().Unix(),
		})
		select {
		case c.send <- pong:
		default:
		}
	}
}

// WritePump writes each queued event as its own text frame and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("⚠️  WebSocket write to %s failed: %v", c.Actor.Email, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
