package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dgnsrekt/risk-monitor/internal/alerts"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4 * 1024

	// Send buffer size per client.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client represents a WebSocket client connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	connID string
	groups map[string]bool
	logger *zap.Logger
}

// clientRequest is the inbound control message.
type clientRequest struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	Group  string `json:"group"`
}

type ackMessage struct {
	Type    string `json:"type"`
	Group   string `json:"group,omitempty"`
	Success bool   `json:"success"`
}

type connectedMessage struct {
	Type   string `json:"type"`
	ConnID string `json:"conn_id"`
}

// HandleWS upgrades the connection and starts the client pumps. Clients
// subscribe to alert groups through JSON control messages.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		connID: uuid.New().String(),
		groups: make(map[string]bool),
		logger: h.logger,
	}

	h.register <- client

	connected, _ := json.Marshal(connectedMessage{Type: "connected", ConnID: client.connID})
	client.send <- connected

	// Start read/write pumps
	go client.writePump()
	go client.readPump()
}

// readPump reads messages from the WebSocket connection.
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
			}
			break
		}
		c.handleMessage(message)
	}
}

// writePump writes messages to the WebSocket connection.
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
				// Channel closed, send close message
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("websocket write error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
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

// handleMessage processes an inbound control message.
func (c *Client) handleMessage(data []byte) {
	var req clientRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.logger.Debug("failed to parse client message",
			zap.String("connID", c.connID),
			zap.Error(err),
		)
		return
	}

	switch req.Action {
	case "subscribe":
		if isValidGroup(req.Group) {
			c.hub.JoinGroup(c, req.Group)
			c.sendAck(req.Group, true)
		} else {
			c.logger.Debug("invalid group name",
				zap.String("connID", c.connID),
				zap.String("group", req.Group),
			)
			c.sendAck(req.Group, false)
		}

	case "unsubscribe":
		c.hub.LeaveGroup(c, req.Group)
		c.sendAck(req.Group, true)
	}
}

func (c *Client) sendAck(group string, success bool) {
	ack, _ := json.Marshal(ackMessage{Type: "ack", Group: group, Success: success})
	select {
	case c.send <- ack:
	default:
	}
}

// encodeEvent serializes an alert event for the wire.
func encodeEvent(ev alerts.Event) ([]byte, error) {
	return json.Marshal(ev)
}

// isValidGroup accepts only group names that map to alert event kinds.
func isValidGroup(group string) bool {
	for _, kind := range alerts.Kinds() {
		if group == string(kind) {
			return true
		}
	}
	return false
}
