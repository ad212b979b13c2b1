package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// ArchiveStore persists every turn to PostgreSQL for long-term history.
type ArchiveStore struct {
	db *sql.DB
}

// NewArchiveStore creates an archive store. It returns nil without a database.
func NewArchiveStore(db *sql.DB) *ArchiveStore {
	if db == nil {
		return nil
	}
	return &ArchiveStore{db: db}
}

// Append inserts the turn. Replaying a request id already stored for the
// session is not an error.
func (s *ArchiveStore) Append(ctx context.Context, turn Turn) error {
	if s == nil || s.db == nil || turn.SessionID == "" {
		return nil
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	md, err := json.Marshal(turn.Metadata)
	if err != nil {
		return fmt.Errorf("conversation: marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversation_turns (id, session_id, request_id, user_text, bot_text, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), turn.SessionID, turn.RequestID, turn.UserText, turn.BotText, md, turn.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil
		}
		return fmt.Errorf("conversation: insert turn: %w", err)
	}
	return nil
}

// RecentTurns returns up to limit archived turns, newest first.
func (s *ArchiveStore) RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	if s == nil || s.db == nil || sessionID == "" || limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, request_id, user_text, bot_text, metadata, created_at
		FROM conversation_turns
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("conversation: query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var (
			turn Turn
			md   []byte
		)
		if err := rows.Scan(&turn.SessionID, &turn.RequestID, &turn.UserText, &turn.BotText, &md, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("conversation: scan turn: %w", err)
		}
		if len(md) > 0 {
			if err := json.Unmarshal(md, &turn.Metadata); err != nil {
				return nil, fmt.Errorf("conversation: decode metadata: %w", err)
			}
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversation: iterate turns: %w", err)
	}
	return turns, nil
}
