package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Hub manages all WebSocket connections and the per-booking subscriptions
// through which lifecycle events reach the clients. The engines are the
// sole publishers; delivery is at-least-once and clients deduplicate by
// event id.
type Hub struct {
	// Registered clients by user id
	Clients map[uint]*Client

	// Booking subscriptions: booking id -> set of user ids
	BookingSubscribers map[uint]map[uint]bool

	// Broadcast channel for messages to all clients
	Broadcast chan *Message

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Message handlers for inbound client messages
	MessageHandlers map[string]MessageHandler

	mu sync.RWMutex
}

// Message is the wire format for realtime delivery in both directions
type Message struct {
	Type      string      `json:"type"`
	EventID   uint        `json:"event_id,omitempty"`
	BookingID uint        `json:"booking_id,omitempty"`
	ActorID   uint        `json:"actor_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// MessageHandler handles different types of inbound messages
type MessageHandler func(*Client, *Message) error

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	hub := &Hub{
		Clients:            make(map[uint]*Client),
		BookingSubscribers: make(map[uint]map[uint]bool),
		Broadcast:          make(chan *Message),
		Register:           make(chan *Client),
		Unregister:         make(chan *Client),
		MessageHandlers:    make(map[string]MessageHandler),
	}

	// Register default message handlers
	hub.registerDefaultHandlers()

	return hub
}

// registerDefaultHandlers registers default message handlers
func (h *Hub) registerDefaultHandlers() {
	h.MessageHandlers["subscribe"] = h.handleSubscribe
	h.MessageHandlers["unsubscribe"] = h.handleUnsubscribe
	h.MessageHandlers["ping"] = h.handlePing
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.Clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("🔌 Client registered: ID=%d, Role=%s", client.ID, client.Role)

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.Clients[client.ID]; ok {
				// Drop the user from every booking subscription
				for bookingID := range h.BookingSubscribers {
					if h.BookingSubscribers[bookingID][client.ID] {
						delete(h.BookingSubscribers[bookingID], client.ID)
					}
				}

				delete(h.Clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			log.Printf("🔌 Client unregistered: ID=%d, Role=%s", client.ID, client.Role)

		case message := <-h.Broadcast:
			h.broadcastMessage(message)
		}
	}
}

// broadcastMessage sends a message to all connected clients
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error marshaling message: %v", err)
		return
	}

	for id, client := range h.Clients {
		select {
		case client.Send <- data:
		default:
			close(client.Send)
			delete(h.Clients, id)
		}
	}
}

// PublishToBooking delivers an event message to every user subscribed to
// the booking. Subscribers that fell behind are dropped; they resubscribe
// and refetch on reconnect.
func (h *Hub) PublishToBooking(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subscribers := h.BookingSubscribers[message.BookingID]
	if len(subscribers) == 0 {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error marshaling booking event: %v", err)
		return
	}

	for userID := range subscribers {
		client, ok := h.Clients[userID]
		if !ok {
			continue
		}
		select {
		case client.Send <- data:
		default:
			log.Printf("⚠️ Dropping booking event for slow client %d", userID)
		}
	}
}

// SendToUser sends a message to a specific user if they are connected
func (h *Hub) SendToUser(userID uint, message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.Clients[userID]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error marshaling message: %v", err)
		return
	}

	select {
	case client.Send <- data:
	default:
		log.Printf("⚠️ Send buffer full for user %d, message dropped", userID)
	}
}

// handleSubscribe adds the client to a booking's subscriber set
func (h *Hub) handleSubscribe(client *Client, message *Message) error {
	if message.BookingID == 0 {
		return ErrMissingBookingID
	}

	h.mu.Lock()
	if h.BookingSubscribers[message.BookingID] == nil {
		h.BookingSubscribers[message.BookingID] = make(map[uint]bool)
	}
	h.BookingSubscribers[message.BookingID][client.ID] = true
	h.mu.Unlock()

	log.Printf("👥 User %d subscribed to booking %d", client.ID, message.BookingID)

	client.SendMessage(&Message{
		Type:      "subscribed",
		BookingID: message.BookingID,
		Timestamp: time.Now(),
	})
	return nil
}

// handleUnsubscribe removes the client from a booking's subscriber set
func (h *Hub) handleUnsubscribe(client *Client, message *Message) error {
	if message.BookingID == 0 {
		return ErrMissingBookingID
	}

	h.mu.Lock()
	if subs := h.BookingSubscribers[message.BookingID]; subs != nil {
		delete(subs, client.ID)
	}
	h.mu.Unlock()

	log.Printf("👥 User %d unsubscribed from booking %d", client.ID, message.BookingID)
	return nil
}

// handlePing answers client keepalives
func (h *Hub) handlePing(client *Client, message *Message) error {
	client.SendMessage(&Message{
		Type:      "pong",
		Timestamp: time.Now(),
	})
	return nil
}

// HandleMessage dispatches an inbound client message to its handler
func (h *Hub) HandleMessage(client *Client, message *Message) {
	handler, ok := h.MessageHandlers[message.Type]
	if !ok {
		log.Printf("⚠️ No handler for message type '%s' from user %d", message.Type, client.ID)
		return
	}

	if err := handler(client, message); err != nil {
		log.Printf("❌ Handler error for '%s' from user %d: %v", message.Type, client.ID, err)
	}
}
