package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024 // 64KB
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// Client is one connected websocket participant
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub
	Room string
}

// ReadPump reads frames from the peer and dispatches them to the hub.
// One goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.LogError(err, "Unexpected close", "client_id", c.ID)
			}
			break
		}

		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			c.Hub.log.Warn("Unparseable frame", "client_id", c.ID)
			c.sendEvent(EventError, errorPayload{Message: "Error processing message"})
			continue
		}

		go c.handleEvent(evt)
	}
}

// handleEvent dispatches one inbound frame. A panic while handling is
// converted to a generic error event so a single bad frame never drops the
// connection.
func (c *Client) handleEvent(evt Event) {
	defer func() {
		if r := recover(); r != nil {
			c.Hub.log.Error("Panic handling event",
				"client_id", c.ID,
				"event", evt.Event,
				"error", r,
			)
			c.sendEvent(EventError, errorPayload{Message: "Error processing message"})
		}
	}()

	switch evt.Event {
	case EventMessage:
		var payload map[string]any
		if err := json.Unmarshal(evt.Payload, &payload); err != nil {
			c.sendEvent(EventError, errorPayload{Message: "Error processing message"})
			return
		}
		c.Hub.HandleInbound(c, payload)

	case EventJoinRoom:
		var payload struct {
			Room string `json:"room"`
		}
		if len(evt.Payload) > 0 {
			_ = json.Unmarshal(evt.Payload, &payload)
		}
		if payload.Room == "" {
			payload.Room = c.Hub.opts.DefaultRoom
		}
		c.Room = payload.Room
		c.sendEvent(EventJoinedRoom, map[string]string{"room": payload.Room})

	default:
		c.Hub.log.Warn("Unknown event type", "client_id", c.ID, "event", evt.Event)
	}
}

// sendEvent unicasts an event to this client only
func (c *Client) sendEvent(event string, payload any) {
	data, err := marshalEvent(event, payload)
	if err != nil {
		c.Hub.log.LogError(err, "Error marshaling event", "event", event)
		return
	}

	// Do not block the caller if this client's send queue is full; the
	// write pump or hub will clean the connection up
	select {
	case c.Send <- data:
	default:
	}
}

// WritePump writes queued frames to the peer and keeps the connection alive
// with pings. One goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Drain any queued messages as separate frames
			n := len(c.Send)
			for i := 0; i < n; i++ {
				if err := c.Conn.WriteMessage(websocket.TextMessage, <-c.Send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades an HTTP request to a websocket connection and registers
// the client with the hub
func ServeWs(hub *Hub, c *gin.Context) {
	clientID := c.Query("clientId")
	if clientID == "" {
		clientID = uuid.New().String()
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.LogError(err, "Error upgrading connection", "client_id", clientID)
		return
	}

	client := &Client{
		ID:   clientID,
		Conn: conn,
		Send: make(chan []byte, 256),
		Hub:  hub,
	}

	client.Hub.register <- client
	hub.log.Info("New WebSocket connection established", "client_id", clientID)

	// Acknowledge the connection to this client only
	client.sendEvent(EventConnected, map[string]string{"status": "Connected to server"})

	// Start the pumps in separate goroutines
	go client.WritePump()
	go client.ReadPump()
}
