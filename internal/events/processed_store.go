package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcessedStore is the request ledger for mutating tools. Each entry keeps the
// reference the first run produced (a reservation number) so a retry can
// answer with it instead of applying the change again.
type ProcessedStore struct {
	pool rowQuerier
}

func NewProcessedStore(pool *pgxpool.Pool) *ProcessedStore {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return &ProcessedStore{pool: pool}
}

func newProcessedStoreWithExec(exec rowQuerier) *ProcessedStore {
	if exec == nil {
		panic("events: exec required")
	}
	return &ProcessedStore{pool: exec}
}

// Lookup returns the stored reference when tool already ran for requestID.
func (s *ProcessedStore) Lookup(ctx context.Context, tool, requestID string) (string, bool, error) {
	if strings.TrimSpace(requestID) == "" {
		return "", false, nil
	}
	var reference string
	err := s.pool.QueryRow(ctx,
		`SELECT reference FROM processed_requests WHERE tool = $1 AND request_id = $2`,
		tool, requestID,
	).Scan(&reference)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("events: lookup processed request: %w", err)
	}
	return reference, true, nil
}

// Record stores the request, returning false when it was already recorded.
func (s *ProcessedStore) Record(ctx context.Context, tool, requestID, reference string) (bool, error) {
	ct, err := s.pool.Exec(ctx, `
		INSERT INTO processed_requests (tool, request_id, reference)
		VALUES ($1, $2, $3)
		ON CONFLICT (tool, request_id) DO NOTHING
	`, tool, requestID, reference)
	if err != nil {
		return false, fmt.Errorf("events: record processed request: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}
