package ws

import (
	"context"
	"sync"

	"github.com/pealhq/peal/internal/core/domain"
	"github.com/rs/zerolog/log"
)

// Hub tracks connected devices. It implements port.RealTimeGateway for
// chat delivery and port.Notifier for call wake-ups.
type Hub struct {
	mu         sync.Mutex
	clients    map[Client]bool
	broadcast  chan domain.Message
	register   chan Client
	unregister chan Client
	quit       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[Client]bool),
		broadcast:  make(chan domain.Message),
		register:   make(chan Client),
		unregister: make(chan Client),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) BroadcastMessage(ctx context.Context, msg domain.Message) error {
	select {
	case h.broadcast <- msg:
	default:
		log.Warn().Msg("Broadcast channel full, dropping message")
	}
	return nil
}

// PushCall wakes the receiver's device. An offline receiver is not an
// error; the callee can still discover the ringing record on next open.
func (h *Hub) PushCall(ctx context.Context, to domain.UserID, n domain.CallNotification) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.ID() == to.String() {
			return client.SendCallNotice(n)
		}
	}
	log.Debug().Str("user_id", to.String()).Str("call_id", n.CallID.String()).Msg("Receiver offline, wake-up dropped")
	return nil
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Info().Str("client_id", client.ID()).Msg("Client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
				log.Info().Str("client_id", client.ID()).Msg("Client unregistered")
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// deliver routes a chat message to its two parties only.
func (h *Hub) deliver(msg domain.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.ID() != msg.SenderID.String() && client.ID() != msg.ReceiverID.String() {
			continue
		}
		if err := client.SendText(msg); err != nil {
			log.Error().Err(err).Str("client_id", client.ID()).Msg("Error sending message")
			client.Close()
			delete(h.clients, client)
		}
	}
}

func (h *Hub) Register(c Client) {
	h.register <- c
}

func (h *Hub) Unregister(c Client) {
	h.unregister <- c
}

func (h *Hub) Stop() {
	close(h.quit)
}
