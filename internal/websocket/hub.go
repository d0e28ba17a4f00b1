package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Message types
const (
	MessageTypeScoreSubmitted = "score_submitted"
	MessageTypeCabStatus      = "cab_status"
	MessageTypeSubscribe      = "subscribe"
	MessageTypeUnsubscribe    = "unsubscribe"
	MessageTypePing           = "ping"
	MessageTypePong           = "pong"
	MessageTypeError          = "error"
)

// Message represents a WebSocket message
type Message struct {
	Type      string    `json:"type"`
	CabSide   string    `json:"cab_side,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ScoreEvent is the payload pushed to overlay clients when a play
// finishes and its score has been submitted upstream.
type ScoreEvent struct {
	PlayerID   string  `json:"player_id"`
	Nickname   string  `json:"nickname"`
	CabSide    string  `json:"cab_side,omitempty"`
	ScoreValue float64 `json:"score_value"`
	Passed     bool    `json:"passed"`
	Title      string  `json:"title,omitempty"`
	Artist     string  `json:"artist,omitempty"`
}

// CabStatus reports the outcome of a reachability broadcast
type CabStatus struct {
	Online bool   `json:"online"`
	Addr   string `json:"addr"`
}

// Hub maintains the set of connected overlay clients and pushes score
// and cabinet status events to them
type Hub struct {
	// Clients subscribed per cab side
	clients map[string]map[*Client]bool

	// All connected clients
	allClients map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Outbound events
	broadcast chan *Message

	// Subscription requests
	subscribe chan *subscriptionRequest

	// Unsubscription requests
	unsubscribe chan *subscriptionRequest

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Logger
	logger *slog.Logger

	// Context for shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

type subscriptionRequest struct {
	client  *Client
	cabSide string
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[string]map[*Client]bool),
		allClients:  make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		subscribe:   make(chan *subscriptionRequest, 64),
		unsubscribe: make(chan *subscriptionRequest, 64),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.logger.Info("score feed hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("score feed hub stopping")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.allClients[client] = true
			h.mu.Unlock()
			h.logger.Debug("overlay client registered", "client_id", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.allClients[client]; ok {
				delete(h.allClients, client)
				// Remove from all cab side subscriptions
				for side, clients := range h.clients {
					if _, ok := clients[client]; ok {
						delete(clients, client)
						if len(clients) == 0 {
							delete(h.clients, side)
						}
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("overlay client unregistered", "client_id", client.id)

		case req := <-h.subscribe:
			h.mu.Lock()
			if _, ok := h.clients[req.cabSide]; !ok {
				h.clients[req.cabSide] = make(map[*Client]bool)
			}
			h.clients[req.cabSide][req.client] = true
			h.mu.Unlock()
			h.logger.Debug("overlay client subscribed", "client_id", req.client.id, "cab_side", req.cabSide)

		case req := <-h.unsubscribe:
			h.mu.Lock()
			if clients, ok := h.clients[req.cabSide]; ok {
				delete(clients, req.client)
				if len(clients) == 0 {
					delete(h.clients, req.cabSide)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("overlay client unsubscribed", "client_id", req.client.id, "cab_side", req.cabSide)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
}

// broadcastMessage sends a message to subscribed clients. Messages
// without a cab side go to every connected client.
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}

	if message.CabSide != "" {
		if clients, ok := h.clients[message.CabSide]; ok {
			for client := range clients {
				select {
				case client.send <- data:
				default:
					h.logger.Warn("client buffer full, skipping", "client_id", client.id)
				}
			}
		}
	} else {
		for client := range h.allClients {
			select {
			case client.send <- data:
			default:
				h.logger.Warn("client buffer full, skipping", "client_id", client.id)
			}
		}
	}
}

// BroadcastScore pushes a submitted score to the overlay clients
// subscribed to its cab side
func (h *Hub) BroadcastScore(event ScoreEvent) {
	message := &Message{
		Type:      MessageTypeScoreSubmitted,
		CabSide:   event.CabSide,
		Data:      event,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// BroadcastCabStatus pushes the outcome of a reachability broadcast to
// every connected client
func (h *Hub) BroadcastCabStatus(status CabStatus) {
	message := &Message{
		Type:      MessageTypeCabStatus,
		Data:      status,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe adds a client to a cab side subscription
func (h *Hub) Subscribe(client *Client, cabSide string) {
	h.subscribe <- &subscriptionRequest{
		client:  client,
		cabSide: cabSide,
	}
}

// Unsubscribe removes a client from a cab side subscription
func (h *Hub) Unsubscribe(client *Client, cabSide string) {
	h.unsubscribe <- &subscriptionRequest{
		client:  client,
		cabSide: cabSide,
	}
}

// GetSubscriberCount returns the number of subscribers for a cab side
func (h *Hub) GetSubscriberCount(cabSide string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.clients[cabSide]; ok {
		return len(clients)
	}
	return 0
}

// GetTotalConnections returns the total number of connected clients
func (h *Hub) GetTotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.allClients)
}
