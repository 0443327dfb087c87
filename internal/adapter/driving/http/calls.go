package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/pealhq/peal/internal/core/domain"
	"github.com/pealhq/peal/internal/core/port"
)

type startCallRequest struct {
	CallerID      string `json:"caller_id"`
	CallerName    string `json:"caller_name"`
	CallerImage   string `json:"caller_image"`
	ReceiverID    string `json:"receiver_id"`
	ReceiverName  string `json:"receiver_name"`
	ReceiverImage string `json:"receiver_image"`
	Type          string `json:"type"`
}

type callSessionDTO struct {
	CallID        string `json:"call_id"`
	CallerID      string `json:"caller_id"`
	CallerName    string `json:"caller_name"`
	CallerImage   string `json:"caller_image"`
	ReceiverID    string `json:"receiver_id"`
	ReceiverName  string `json:"receiver_name"`
	ReceiverImage string `json:"receiver_image"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at,omitempty"`
}

func sessionDTO(sess domain.CallSession) callSessionDTO {
	dto := callSessionDTO{
		CallID:        sess.ID.String(),
		CallerID:      sess.CallerID.String(),
		CallerName:    sess.CallerName,
		CallerImage:   sess.CallerImage,
		ReceiverID:    sess.ReceiverID.String(),
		ReceiverName:  sess.ReceiverName,
		ReceiverImage: sess.ReceiverImage,
		Type:          string(sess.Type),
		Status:        string(sess.Status),
	}
	if !sess.CreatedAt.IsZero() {
		dto.CreatedAt = sess.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return dto
}

// StartCall answers with the generated call id before the durable write
// completes; the create runs in the background the same way the caller's
// screen navigates optimistically.
func (h *Handler) StartCall(w http.ResponseWriter, r *http.Request) {
	var req startCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	callerID, err := domain.ParseUserID(req.CallerID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid caller_id")
		return
	}
	receiverID, err := domain.ParseUserID(req.ReceiverID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid receiver_id")
		return
	}

	caller := domain.Participant{ID: callerID, Profile: domain.Profile{Name: req.CallerName, Image: req.CallerImage}}
	receiver := domain.Participant{ID: receiverID, Profile: domain.Profile{Name: req.ReceiverName, Image: req.ReceiverImage}}

	started, err := h.CallService.Start(r.Context(), caller, receiver, domain.CallType(req.Type))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	go func() {
		if err, ok := <-started.CreateErr; ok && err != nil {
			log.Error().Err(err).Str("call_id", started.Session.ID.String()).Msg("Background create failed")
		}
	}()

	respondJSON(w, http.StatusAccepted, sessionDTO(started.Session))
}

func (h *Handler) GetCall(w http.ResponseWriter, r *http.Request) {
	id, ok := callID(w, r)
	if !ok {
		return
	}
	sess, err := h.CallService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			respondError(w, http.StatusNotFound, "call not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "read failed")
		return
	}
	respondJSON(w, http.StatusOK, sessionDTO(sess))
}

func (h *Handler) AcceptCall(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.CallService.Accept)
}

func (h *Handler) RejectCall(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.CallService.Reject)
}

func (h *Handler) CancelCall(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.CallService.Cancel)
}

func (h *Handler) EndCall(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.CallService.End)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id domain.CallID) error) {
	id, ok := callID(w, r)
	if !ok {
		return
	}
	if err := op(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, port.ErrNotFound):
			respondError(w, http.StatusNotFound, "call not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			respondError(w, http.StatusConflict, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "status write failed")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func callID(w http.ResponseWriter, r *http.Request) (domain.CallID, bool) {
	id, err := domain.ParseCallID(chi.URLParam(r, "callID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid call id")
		return domain.CallID{}, false
	}
	return id, true
}
