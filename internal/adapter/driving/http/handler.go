package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pealhq/peal/internal/adapter/driven/gateway/ws"
	"github.com/pealhq/peal/internal/core/port"
	"github.com/pealhq/peal/internal/core/service"
)

type Handler struct {
	CallService *service.CallService
	ChatService *service.ChatService
	Hub         *ws.Hub
	Store       port.CallRepository
}

func NewHandler(callService *service.CallService, chatService *service.ChatService, hub *ws.Hub, store port.CallRepository) *Handler {
	return &Handler{
		CallService: callService,
		ChatService: chatService,
		Hub:         hub,
		Store:       store,
	}
}

func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)

	r.Route("/calls", func(r chi.Router) {
		r.Post("/", h.StartCall)
		r.Get("/{callID}", h.GetCall)
		r.Post("/{callID}/accept", h.AcceptCall)
		r.Post("/{callID}/reject", h.RejectCall)
		r.Post("/{callID}/cancel", h.CancelCall)
		r.Post("/{callID}/end", h.EndCall)
	})

	r.Get("/ws", h.ServeWS)

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respondJSON(w, code, map[string]string{"error": msg})
}
