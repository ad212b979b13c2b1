package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/reservation-dialogue/internal/observability/metrics"
	"github.com/wolfman30/reservation-dialogue/pkg/logging"
)

// TieredHistory reads recent turns from a fast store and falls back to the
// archive when the fast store fails or has fewer turns than asked for. Writes
// go to both; only a failed write to the fast store is returned.
type TieredHistory struct {
	recent  HistoryStore
	archive HistoryStore
	logger  *logging.Logger
	metrics *metrics.DialogueMetrics
}

// NewTieredHistory composes the two stores. Either may be nil.
func NewTieredHistory(recent, archive HistoryStore, logger *logging.Logger) *TieredHistory {
	if logger == nil {
		logger = logging.Default()
	}
	return &TieredHistory{recent: recent, archive: archive, logger: logger}
}

// WithMetrics counts each read by the tier that served it.
func (h *TieredHistory) WithMetrics(m *metrics.DialogueMetrics) *TieredHistory {
	h.metrics = m
	return h
}

// History load sources.
const (
	historyFromCache   = "cache"
	historyFromArchive = "archive"
	historyEmpty       = "empty"
	historyError       = "error"
)

func (h *TieredHistory) RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	turns, source, err := h.recentTurns(ctx, sessionID, limit)
	if err == nil && len(turns) == 0 {
		source = historyEmpty
	}
	h.metrics.ObserveHistory(source)
	return turns, err
}

func (h *TieredHistory) recentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, string, error) {
	var recentErr error
	var turns []Turn
	if h.recent != nil {
		turns, recentErr = h.recent.RecentTurns(ctx, sessionID, limit)
		if recentErr == nil && len(turns) >= limit {
			return turns, historyFromCache, nil
		}
		if recentErr != nil {
			h.logger.Warn("recent turn store unavailable", "session_id", sessionID, "error", recentErr)
		}
	}
	if h.archive == nil {
		if recentErr != nil {
			return turns, historyError, recentErr
		}
		return turns, historyFromCache, nil
	}

	archived, err := h.archive.RecentTurns(ctx, sessionID, limit)
	if err != nil {
		if recentErr != nil {
			return nil, historyError, errors.Join(recentErr, err)
		}
		h.logger.Warn("turn archive unavailable", "session_id", sessionID, "error", err)
		return turns, historyFromCache, nil
	}
	if len(archived) > len(turns) {
		return archived, historyFromArchive, nil
	}
	return turns, historyFromCache, nil
}

func (h *TieredHistory) Append(ctx context.Context, turn Turn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	if h.archive != nil {
		if err := h.archive.Append(ctx, turn); err != nil {
			h.logger.Error("failed to archive turn", "session_id", turn.SessionID, "request_id", turn.RequestID, "error", err)
		}
	}
	if h.recent == nil {
		return nil
	}
	return h.recent.Append(ctx, turn)
}
