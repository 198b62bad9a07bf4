package ws

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gomoku/backend/internal/logger"
	"github.com/gomoku/backend/internal/middleware"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 512                 // Maximum message size allowed from peer.
	sendBuffer     = 256
)

// Client represents a connected player
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	username string
	gameID   string
}

// ServeWs handles WebSocket connection requests and upgrades them
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return middleware.OriginAllowed(origin, hub.cfg.AllowedOrigins)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", map[string]interface{}{
			"error":  err.Error(),
			"remote": r.RemoteAddr,
			"origin": r.Header.Get("Origin"),
		})
		return
	}

	client := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	client.hub.register <- client
	go client.writePump()
	go client.readPump()
}

// readPump continuously reads messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNoStatusReceived) {
				logger.Warn("websocket error", map[string]interface{}{"username": c.username, "error": err.Error()})
			}
			break
		}
		c.dispatch(message)
	}
}

// dispatch routes one inbound message to the hub.
func (c *Client) dispatch(message []byte) {
	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		c.hub.reply(c, "invalid message")
		return
	}

	switch msg.Type {
	case "join":
		p, err := decodeJoin(msg.Payload)
		if err != nil {
			c.hub.reply(c, "invalid join payload")
			return
		}
		c.hub.handleJoin(c, p)

	case "move":
		var p movePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.hub.reply(c, "invalid move payload")
			return
		}
		c.hub.handleMove(c, p)

	case "hint":
		c.hub.handleHint(c)

	case "playAgain":
		c.hub.handlePlayAgain(c)

	case "exitGame":
		c.hub.handleExit(c)

	default:
		c.hub.reply(c, "unknown message type "+msg.Type)
	}
}

// decodeJoin accepts either a bare username string or a join object.
func decodeJoin(raw json.RawMessage) (joinPayload, error) {
	var p joinPayload
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		err := json.Unmarshal(raw, &p.Username)
		return p, err
	}
	err := json.Unmarshal(raw, &p)
	return p, err
}

func (h *Hub) reply(c *Client, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendError(c, c.gameID, text)
}

// writePump continuously writes messages from the hub to the WebSocket connection
func (c *Client) writePump() {
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

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
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
