package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTurnTTL      = 7 * 24 * time.Hour
	defaultTurnCapacity = 50
)

// RedisTurnStore keeps the latest turns of each session in a capped Redis
// list, newest at the head.
type RedisTurnStore struct {
	redis    *redis.Client
	tracer   trace.Tracer
	ttl      time.Duration
	capacity int64
}

// NewRedisTurnStore creates a turn store. A zero ttl or capacity uses the
// defaults.
func NewRedisTurnStore(client *redis.Client, ttl time.Duration, capacity int) *RedisTurnStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultTurnTTL
	}
	if capacity <= 0 {
		capacity = defaultTurnCapacity
	}
	return &RedisTurnStore{
		redis:    client,
		tracer:   otel.Tracer("reservation.internal.conversation.history"),
		ttl:      ttl,
		capacity: int64(capacity),
	}
}

// Append pushes turn onto the session list and trims it to capacity.
func (s *RedisTurnStore) Append(ctx context.Context, turn Turn) error {
	ctx, span := s.tracer.Start(ctx, "conversation.append_turn")
	defer span.End()

	if turn.SessionID == "" {
		return nil
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(turn)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal turn: %w", err)
	}

	key := turnsKey(turn.SessionID)
	pipe := s.redis.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, s.capacity-1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist turn: %w", err)
	}
	return nil
}

// RecentTurns returns up to limit turns, newest first. An unknown session has
// no turns.
func (s *RedisTurnStore) RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.recent_turns")
	defer span.End()

	if sessionID == "" || limit <= 0 {
		return nil, nil
	}
	raw, err := s.redis.LRange(ctx, turnsKey(sessionID), 0, int64(limit)-1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load turns: %w", err)
	}

	turns := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var turn Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("conversation: failed to decode turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func turnsKey(sessionID string) string {
	return fmt.Sprintf("conversation:turns:%s", sessionID)
}
