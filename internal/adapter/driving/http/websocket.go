package http

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/pealhq/peal/internal/core/domain"
	"github.com/pealhq/peal/internal/core/port"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: only for dev
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSClient struct {
	id   domain.UserID
	conn *websocket.Conn

	// writeMu serializes frames: the hub loop and subscription pumps
	// write concurrently, and gorilla connections allow one writer.
	writeMu sync.Mutex
}

func (c *WSClient) ID() string {
	return c.id.String()
}

func (c *WSClient) SendText(msg domain.Message) error {
	type messageDTO struct {
		Event     string `json:"event"`
		SenderID  string `json:"sender_id"`
		Content   string `json:"content"`
		CreatedAt string `json:"created_at"`
	}

	return c.writeJSON(messageDTO{
		Event:     "message",
		SenderID:  msg.SenderID.String(),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// SendCallNotice is the push payload contract: the data fields are all
// the callee needs to open the incoming-call route.
func (c *WSClient) SendCallNotice(n domain.CallNotification) error {
	return c.writeJSON(map[string]any{
		"event": "call_notice",
		"title": n.Title,
		"body":  n.Body,
		"data": map[string]string{
			"type":     "call",
			"callId":   n.CallID.String(),
			"callerId": n.CallerID.String(),
			"callType": string(n.Type),
		},
	})
}

func (c *WSClient) SendSnapshot(snap port.CallSnapshot) error {
	if !snap.Exists {
		return c.writeJSON(map[string]any{
			"event":  "call_snapshot",
			"exists": false,
		})
	}
	return c.writeJSON(map[string]any{
		"event":  "call_snapshot",
		"exists": true,
		"call":   sessionDTO(snap.Session),
	})
}

func (c *WSClient) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *WSClient) Close() error {
	return c.conn.Close()
}

// HTTP handler
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Error while upgrading ws")
		return
	}

	clientID, err := domain.ParseUserID(r.URL.Query().Get("uid"))
	if err != nil {
		clientID = domain.NewUserID()
	}

	client := &WSClient{
		id:   clientID,
		conn: conn,
	}

	l := log.With().Str("client_id", clientID.String()).Logger()
	l.Info().Msg("New client connected")

	h.Hub.Register(client)

	// Per-connection subscription cancels, keyed by call id. Every exit
	// path releases them.
	cancels := make(map[string]func())

	defer func() {
		l.Info().Msg("Client disconnected")
		for _, cancel := range cancels {
			cancel()
		}
		h.Hub.Unregister(client)
		conn.Close()
	}()

	for {
		type incomingDTO struct {
			Type    string `json:"type"`
			To      string `json:"to"`
			Content string `json:"content"`
			CallID  string `json:"call_id"`
		}

		var req incomingDTO
		err := conn.ReadJSON(&req)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				l.Error().Err(err).Msg("Unexpected close error")
			}
			break
		}

		switch req.Type {
		case "subscribe_call":
			id, err := domain.ParseCallID(req.CallID)
			if err != nil {
				l.Warn().Str("call_id", req.CallID).Msg("Bad call id in subscribe")
				continue
			}
			if _, ok := cancels[req.CallID]; ok {
				continue
			}
			snaps, cancel, err := h.Store.Subscribe(r.Context(), id)
			if err != nil {
				l.Error().Err(err).Msg("Failed to subscribe to call")
				continue
			}
			cancels[req.CallID] = cancel
			go func() {
				for snap := range snaps {
					if err := client.SendSnapshot(snap); err != nil {
						return
					}
				}
			}()

		case "unsubscribe_call":
			if cancel, ok := cancels[req.CallID]; ok {
				cancel()
				delete(cancels, req.CallID)
			}

		case "chat":
			receiverID, err := domain.ParseUserID(req.To)
			if err != nil {
				l.Warn().Str("to", req.To).Msg("Bad receiver id in chat message")
				continue
			}
			if err := h.ChatService.SendMessage(r.Context(), client.id, receiverID, req.Content); err != nil {
				l.Error().Err(err).Msg("Failed to process message")
				continue
			}

		default:
			l.Warn().Str("type", req.Type).Msg("Unknown frame type")
		}
	}
}
