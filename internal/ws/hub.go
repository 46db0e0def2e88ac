package ws

import (
	"context"
	"sync"
	"time"

	"ai-dev-platform/backend/internal/chat"
	"ai-dev-platform/backend/pkg/logger"
	"ai-dev-platform/backend/shared/observability"
)

// ReplyGenerator produces one assistant message from a transcript window
type ReplyGenerator interface {
	Generate(ctx context.Context, transcript []chat.Message, role string) (chat.Message, error)
	Configured() bool
}

// Options tunes the relay behavior of a Hub
type Options struct {
	// MentionKeyword is the literal marker inside message text that triggers
	// assistant reply generation
	MentionKeyword string
	// AssistantSender is the sender id the assistant writes under; messages
	// from it never re-trigger generation
	AssistantSender string
	// ContextWindow is how many recent messages are sent upstream per reply
	ContextWindow int
	// ReplyTimeout bounds one reply generation; on expiry the apology
	// message is broadcast instead
	ReplyTimeout time.Duration
	// DefaultRoom is assigned on join_room when the client names none
	DefaultRoom string
}

// DefaultOptions returns the relay defaults
func DefaultOptions() Options {
	return Options{
		MentionKeyword:  "@Assistant",
		AssistantSender: "assistant",
		ContextWindow:   10,
		ReplyTimeout:    30 * time.Second,
		DefaultRoom:     "general",
	}
}

// Hub owns the set of connected clients and fans every chat message out to
// all of them. It also owns the conversation context buffer and runs the
// mention-trigger rule after each broadcast.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	buffer  *chat.ContextBuffer
	agent   ReplyGenerator
	opts    Options
	log     *logger.Logger
	metrics *observability.Metrics
	mu      sync.Mutex
}

// NewHub creates a hub relaying through the given buffer and reply generator
func NewHub(buffer *chat.ContextBuffer, agent ReplyGenerator, opts Options, log *logger.Logger, metrics *observability.Metrics) *Hub {
	defaults := DefaultOptions()
	if opts.MentionKeyword == "" {
		opts.MentionKeyword = defaults.MentionKeyword
	}
	if opts.AssistantSender == "" {
		opts.AssistantSender = defaults.AssistantSender
	}
	if opts.ContextWindow == 0 {
		opts.ContextWindow = defaults.ContextWindow
	}
	if opts.ReplyTimeout == 0 {
		opts.ReplyTimeout = defaults.ReplyTimeout
	}
	if opts.DefaultRoom == "" {
		opts.DefaultRoom = defaults.DefaultRoom
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		buffer:     buffer,
		agent:      agent,
		opts:       opts,
		log:        log,
		metrics:    metrics,
	}
}

// Run drives the hub's event loop. It must run in its own goroutine before
// any client connects.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.ClientConnected(context.Background(), 1)
			h.log.Info("Client registered", "client_id", client.ID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.metrics.ClientConnected(context.Background(), -1)
				h.log.Info("Client unregistered", "client_id", client.ID)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
					h.log.Warn("Client removed due to blocked channel", "client_id", client.ID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastAll delivers an event to every connected client, sender included
func (h *Hub) BroadcastAll(event string, payload any) {
	data, err := marshalEvent(event, payload)
	if err != nil {
		h.log.LogError(err, "Error marshaling broadcast event", "event", event)
		return
	}
	h.broadcast <- data
}

// ConnectionCount returns the number of currently connected clients
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleInbound runs the inbound message pipeline for one client frame:
// validate, append to the context buffer, broadcast, then evaluate the
// trigger rule. Validation failures are unicast to the sender only and
// nothing is broadcast.
func (h *Hub) HandleInbound(c *Client, payload map[string]any) {
	msg, err := chat.Validate(payload)
	if err != nil {
		h.log.Warn("Invalid message payload", "client_id", c.ID)
		c.sendEvent(EventError, errorPayload{Message: chat.ErrInvalidFormat.Message})
		return
	}

	h.buffer.Append(msg)
	h.BroadcastAll(EventMessage, msg)
	h.metrics.MessageRelayed(context.Background())
	h.log.Info("Message relayed", "user_id", msg.UserID, "role", msg.Role)

	h.evaluateTrigger(msg)
}
