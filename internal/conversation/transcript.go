package conversation

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/reservation-dialogue/pkg/logging"
)

const maxTranscriptTurns = 200

// TranscriptHandler serves session transcripts to clinic staff. Contact
// details are scrubbed from every message.
type TranscriptHandler struct {
	history HistoryReader
	logger  *logging.Logger
}

// NewTranscriptHandler creates a transcript handler over history.
func NewTranscriptHandler(history HistoryReader, logger *logging.Logger) *TranscriptHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &TranscriptHandler{history: history, logger: logger}
}

// TranscriptMessage is one side of a turn.
type TranscriptMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

// TranscriptResponse lists messages oldest first.
type TranscriptResponse struct {
	SessionID string              `json:"session_id"`
	Messages  []TranscriptMessage `json:"messages"`
	Turns     int                 `json:"turns"`
}

func (h *TranscriptHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{sessionID}/turns", h.GetTranscript)
	return r
}

// GetTranscript handles GET /admin/sessions/{sessionID}/turns?limit=N.
func (h *TranscriptHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, `{"error": "session_id required"}`, http.StatusBadRequest)
		return
	}
	if h.history == nil {
		http.Error(w, `{"error": "turn history not configured"}`, http.StatusServiceUnavailable)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, `{"error": "limit must be a positive integer"}`, http.StatusBadRequest)
			return
		}
		limit = min(n, maxTranscriptTurns)
	}

	turns, err := h.history.RecentTurns(r.Context(), sessionID, limit)
	if err != nil {
		h.logger.Error("failed to load transcript", "session_id", sessionID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	resp := TranscriptResponse{SessionID: sessionID, Messages: []TranscriptMessage{}, Turns: len(turns)}
	for i := len(turns) - 1; i >= 0; i-- {
		t := turns[i]
		ts := t.CreatedAt.UTC().Format(time.RFC3339)
		resp.Messages = append(resp.Messages,
			TranscriptMessage{Role: "user", Content: ScrubPII(t.UserText), Timestamp: ts, RequestID: t.RequestID},
			TranscriptMessage{Role: "assistant", Content: ScrubPII(t.BotText), Timestamp: ts, RequestID: t.RequestID},
		)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode transcript", "session_id", sessionID, "error", err)
	}
}
