package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/reservation-dialogue/pkg/logging"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// OutboxEntry is a reservation event claimed for delivery.
type OutboxEntry struct {
	ID        uuid.UUID
	ClinicID  string
	Type      string
	Payload   json.RawMessage
	CreatedAt time.Time
	// Attempts counts claims including the current one.
	Attempts int32
}

// Sink receives claimed outbox entries.
type Sink interface {
	Deliver(ctx context.Context, entry OutboxEntry) error
}

// OutboxStore keeps reservation events in Postgres until a Deliverer hands
// them to a Sink. Entries are claimed under a lease so several deliverers can
// share one table.
type OutboxStore struct {
	db rowQuerier
}

func NewOutboxStore(pool *pgxpool.Pool) *OutboxStore {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return &OutboxStore{db: pool}
}

func newOutboxStoreWithExec(db rowQuerier) *OutboxStore {
	if db == nil {
		panic("events: exec required")
	}
	return &OutboxStore{db: db}
}

// Append stores evt and returns the outbox id.
func (s *OutboxStore) Append(ctx context.Context, evt ReservationEvent) (uuid.UUID, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("events: encode %s: %w", evt.Type, err)
	}
	id := uuid.New()
	if _, err := s.db.Exec(ctx,
		`INSERT INTO outbox (id, clinic_id, type, payload) VALUES ($1, $2, $3, $4)`,
		id, evt.ClinicID, evt.Type, body,
	); err != nil {
		return uuid.Nil, fmt.Errorf("events: append outbox: %w", err)
	}
	return id, nil
}

const claimSQL = `
UPDATE outbox
SET attempts = attempts + 1,
    claimed_until = now() + make_interval(secs => $2)
WHERE id IN (
    SELECT id FROM outbox
    WHERE delivered_at IS NULL
      AND attempts < $3
      AND (claimed_until IS NULL OR claimed_until < now())
    ORDER BY created_at
    LIMIT $1
    FOR UPDATE SKIP LOCKED
)
RETURNING id, clinic_id, type, payload, created_at, attempts`

// Claim leases up to limit undelivered entries that have attempts left.
func (s *OutboxStore) Claim(ctx context.Context, limit int32, lease time.Duration, maxAttempts int32) ([]OutboxEntry, error) {
	rows, err := s.db.Query(ctx, claimSQL, limit, lease.Seconds(), maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("events: claim outbox: %w", err)
	}
	defer rows.Close()

	var claimed []OutboxEntry
	for rows.Next() {
		var (
			e    OutboxEntry
			body []byte
		)
		if err := rows.Scan(&e.ID, &e.ClinicID, &e.Type, &body, &e.CreatedAt, &e.Attempts); err != nil {
			return nil, fmt.Errorf("events: scan outbox: %w", err)
		}
		e.Payload = append(json.RawMessage(nil), body...)
		claimed = append(claimed, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("events: claim outbox: %w", err)
	}
	return claimed, nil
}

// Ack marks the entry delivered.
func (s *OutboxStore) Ack(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.Exec(ctx,
		`UPDATE outbox SET delivered_at = now(), claimed_until = NULL WHERE id = $1`, id,
	); err != nil {
		return fmt.Errorf("events: ack %s: %w", id, err)
	}
	return nil
}

// Fail records why delivery failed. The lease is left in place so the entry
// is retried once it expires.
func (s *OutboxStore) Fail(ctx context.Context, id uuid.UUID, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if _, err := s.db.Exec(ctx,
		`UPDATE outbox SET last_error = $2 WHERE id = $1`, id, msg,
	); err != nil {
		return fmt.Errorf("events: record failure %s: %w", id, err)
	}
	return nil
}

// OutboxPublisher satisfies the tools event publisher by appending to the
// outbox.
type OutboxPublisher struct {
	store *OutboxStore
	now   func() time.Time
}

func NewOutboxPublisher(store *OutboxStore) *OutboxPublisher {
	return &OutboxPublisher{store: store, now: time.Now}
}

func (p *OutboxPublisher) Publish(ctx context.Context, evt ReservationEvent) error {
	if p == nil || p.store == nil {
		return nil
	}
	_, err := p.store.Append(ctx, evt.Stamp(p.now()))
	return err
}

// DeliveryConfig tunes a Deliverer. Zero fields take defaults.
type DeliveryConfig struct {
	BatchSize   int32
	Interval    time.Duration
	Lease       time.Duration
	MaxAttempts int32
}

func (c DeliveryConfig) withDefaults() DeliveryConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 25
	}
	if c.Interval <= 0 {
		c.Interval = 2 * time.Second
	}
	if c.Lease <= 0 {
		c.Lease = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 10
	}
	return c
}

// Deliverer moves claimed outbox entries into a Sink.
type Deliverer struct {
	store  *OutboxStore
	sink   Sink
	cfg    DeliveryConfig
	logger *logging.Logger
}

func NewDeliverer(store *OutboxStore, sink Sink, cfg DeliveryConfig, logger *logging.Logger) *Deliverer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Deliverer{store: store, sink: sink, cfg: cfg.withDefaults(), logger: logger}
}

// Run delivers batches every Interval until ctx is done.
func (d *Deliverer) Run(ctx context.Context) {
	if d == nil || d.store == nil || d.sink == nil {
		return
	}
	d.logger.Info("outbox deliverer running", "batch_size", d.cfg.BatchSize, "interval", d.cfg.Interval.String())
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()
	for {
		if _, err := d.DeliverOnce(ctx); err != nil && ctx.Err() == nil {
			d.logger.Error("outbox claim failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// DeliverOnce claims one batch and returns how many entries reached the sink.
func (d *Deliverer) DeliverOnce(ctx context.Context) (int, error) {
	batch, err := d.store.Claim(ctx, d.cfg.BatchSize, d.cfg.Lease, d.cfg.MaxAttempts)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, entry := range batch {
		if err := d.sink.Deliver(ctx, entry); err != nil {
			d.failed(ctx, entry, err)
			continue
		}
		sent++
		if err := d.store.Ack(ctx, entry.ID); err != nil {
			// Delivered but not acked: the entry is sent again after the lease.
			d.logger.Error("outbox ack failed", "error", err, "event_id", entry.ID)
		}
	}
	return sent, nil
}

func (d *Deliverer) failed(ctx context.Context, entry OutboxEntry, cause error) {
	if err := d.store.Fail(ctx, entry.ID, cause); err != nil {
		d.logger.Error("outbox failure not recorded", "error", err, "event_id", entry.ID)
	}
	if entry.Attempts >= d.cfg.MaxAttempts {
		d.logger.Error("outbox entry abandoned", "error", cause, "event_id", entry.ID, "type", entry.Type, "attempts", entry.Attempts)
		return
	}
	d.logger.Warn("outbox delivery failed", "error", cause, "event_id", entry.ID, "type", entry.Type, "attempts", entry.Attempts)
}
