package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v3"
)

var claimColumns = []string{"id", "clinic_id", "type", "payload", "created_at", "attempts"}

func newMockOutbox(t *testing.T) (pgxmock.PgxPoolIface, *OutboxStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock, newOutboxStoreWithExec(mock)
}

func TestOutboxStoreClaimAckFail(t *testing.T) {
	mock, store := newMockOutbox(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(pgxmock.AnyArg(), "clinic-1", TypeReservationCreated, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	if _, err := store.Append(ctx, ReservationEvent{Type: TypeReservationCreated, ClinicID: "clinic-1", Number: "R1"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	id := uuid.New()
	mock.ExpectQuery("UPDATE outbox").
		WithArgs(int32(10), float64(30), int32(5)).
		WillReturnRows(pgxmock.NewRows(claimColumns).AddRow(id, "clinic-1", TypeReservationCreated, []byte(`{"reservation_number":"R1"}`), time.Now(), int32(1)))
	claimed, err := store.Claim(ctx, 10, 30*time.Second, 5)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != id || claimed[0].Attempts != 1 {
		t.Fatalf("unexpected claim: %#v", claimed)
	}

	mock.ExpectExec("SET delivered_at").WithArgs(id).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	if err := store.Ack(ctx, id); err != nil {
		t.Fatalf("ack: %v", err)
	}

	mock.ExpectExec("SET last_error").WithArgs(id, "queue down").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	if err := store.Fail(ctx, id, errors.New("queue down")); err != nil {
		t.Fatalf("fail: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOutboxPublisherStampsEvent(t *testing.T) {
	mock, store := newMockOutbox(t)
	pub := NewOutboxPublisher(store)
	fixed := time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC)
	pub.now = func() time.Time { return fixed }

	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(pgxmock.AnyArg(), "clinic-1", TypeReservationCancelled, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	if err := pub.Publish(context.Background(), ReservationEvent{Type: TypeReservationCancelled, ClinicID: "clinic-1", Number: "R1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}

	var nilPub *OutboxPublisher
	if err := nilPub.Publish(context.Background(), ReservationEvent{}); err != nil {
		t.Fatalf("nil publisher should be a no-op, got %v", err)
	}
}

type recordingSink struct {
	seen []OutboxEntry
	err  error
}

func (s *recordingSink) Deliver(_ context.Context, entry OutboxEntry) error {
	if s.err != nil {
		return s.err
	}
	s.seen = append(s.seen, entry)
	return nil
}

func TestDelivererDeliverOnce(t *testing.T) {
	mock, store := newMockOutbox(t)
	sink := &recordingSink{}
	d := NewDeliverer(store, sink, DeliveryConfig{BatchSize: 5, MaxAttempts: 3}, nil)
	ctx := context.Background()
	payload, _ := json.Marshal(ReservationEvent{Number: "R1"})

	id := uuid.New()
	mock.ExpectQuery("UPDATE outbox").
		WithArgs(int32(5), float64(30), int32(3)).
		WillReturnRows(pgxmock.NewRows(claimColumns).AddRow(id, "clinic-1", TypeReservationCreated, payload, time.Now(), int32(1)))
	mock.ExpectExec("SET delivered_at").WithArgs(id).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	sent, err := d.DeliverOnce(ctx)
	if err != nil || sent != 1 {
		t.Fatalf("expected one delivery, got %d (%v)", sent, err)
	}
	if len(sink.seen) != 1 || sink.seen[0].ID != id {
		t.Fatalf("unexpected delivered entries: %#v", sink.seen)
	}

	sink.err = errors.New("queue down")
	retry := uuid.New()
	mock.ExpectQuery("UPDATE outbox").
		WithArgs(int32(5), float64(30), int32(3)).
		WillReturnRows(pgxmock.NewRows(claimColumns).AddRow(retry, "clinic-1", TypeReservationCreated, payload, time.Now(), int32(3)))
	mock.ExpectExec("SET last_error").WithArgs(retry, "queue down").WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	sent, err = d.DeliverOnce(ctx)
	if err != nil || sent != 0 {
		t.Fatalf("expected failed delivery to stay pending, got %d (%v)", sent, err)
	}

	mock.ExpectQuery("UPDATE outbox").WillReturnError(errors.New("conn reset"))
	if _, err := d.DeliverOnce(ctx); err == nil {
		t.Fatal("expected claim error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

type signalSink struct{ got chan OutboxEntry }

func (s signalSink) Deliver(_ context.Context, entry OutboxEntry) error {
	s.got <- entry
	return nil
}

func TestDelivererRunStopsWithContext(t *testing.T) {
	mock, store := newMockOutbox(t)
	sink := signalSink{got: make(chan OutboxEntry, 1)}
	d := NewDeliverer(store, sink, DeliveryConfig{Interval: time.Hour}, nil)

	id := uuid.New()
	mock.ExpectQuery("UPDATE outbox").
		WillReturnRows(pgxmock.NewRows(claimColumns).AddRow(id, "clinic-1", TypeReservationCreated, []byte(`{}`), time.Now(), int32(1)))
	mock.ExpectExec("SET delivered_at").WithArgs(id).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	select {
	case entry := <-sink.got:
		if entry.ID != id {
			t.Fatalf("unexpected entry %s", entry.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("deliverer never delivered")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("deliverer did not stop")
	}
}
