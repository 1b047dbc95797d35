package websocket

import "github.com/rs/zerolog/log"

// directMessage targets every connected client of one user.
type directMessage struct {
	userID string
	data   []byte
}

// Hub maintains the set of active clients and delivers messages to them.
// All client and subscription state is owned by the Run goroutine; the
// exported channels and BroadcastTo are the only ways in.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Inbound messages from the clients for global broadcast.
	Broadcast chan []byte

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Targeted deliveries queued by BroadcastTo.
	direct chan directMessage

	// A map of user IDs to the set of that user's connected clients.
	subscriptions map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Broadcast:     make(chan []byte),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		direct:        make(chan directMessage),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
			if client.UserID != "" {
				h.addSubscription(client, client.UserID)
			}
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					h.drop(client)
				}
			}
		case msg := <-h.direct:
			for client := range h.subscriptions[msg.userID] {
				select {
				case client.Send <- msg.data:
				default:
					h.drop(client)
				}
			}
		}
	}
}

// BroadcastTo queues a message for every connected client of a specific
// user. Delivery happens on the Run goroutine, which owns the client maps.
func (h *Hub) BroadcastTo(userID string, message []byte) {
	h.direct <- directMessage{userID: userID, data: message}
}

// drop removes a client and closes its Send channel. Only called from the
// Run goroutine; the clients-map guard makes a second drop a no-op so Send
// is closed at most once.
func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	h.removeSubscription(client)
}

func (h *Hub) addSubscription(client *Client, userID string) {
	if h.subscriptions[userID] == nil {
		h.subscriptions[userID] = make(map[*Client]bool)
	}
	h.subscriptions[userID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	for userID, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, userID)
			}
		}
	}
}
