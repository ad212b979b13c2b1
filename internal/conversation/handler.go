package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wolfman30/reservation-dialogue/pkg/logging"
)

// ChatHandler is the service behind the chat endpoint.
type ChatHandler interface {
	Handle(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// Handler wires HTTP requests to the chat service.
type Handler struct {
	service ChatHandler
	logger  *logging.Logger
}

// NewHandler creates a chat handler.
func NewHandler(service ChatHandler, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Chat handles POST /api/chat/.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode chat request", "error", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "잘못된 JSON 형식입니다."})
		return
	}

	resp, err := h.service.Handle(r.Context(), req)
	if errors.Is(err, ErrEmptyMessage) {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message 필드가 필요합니다."})
		return
	}
	if err != nil {
		h.logger.Error("failed to process chat message", "session_id", req.SessionID, "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": AnswerFailedReply})
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
