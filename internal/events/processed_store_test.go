package events

import (
	"context"
	"errors"
	"testing"

	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func TestProcessedStoreLookup(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newProcessedStoreWithExec(mock)

	mock.ExpectQuery("SELECT reference FROM processed_requests").
		WithArgs("reservation_create", "req-1").
		WillReturnRows(pgxmock.NewRows([]string{"reference"}).AddRow("R261019-AB12"))
	ref, found, err := store.Lookup(context.Background(), "reservation_create", "req-1")
	if err != nil || !found || ref != "R261019-AB12" {
		t.Fatalf("expected stored reference, got ref=%q found=%v err=%v", ref, found, err)
	}

	mock.ExpectQuery("SELECT reference FROM processed_requests").
		WithArgs("reservation_create", "req-2").
		WillReturnError(pgx.ErrNoRows)
	_, found, err = store.Lookup(context.Background(), "reservation_create", "req-2")
	if err != nil || found {
		t.Fatalf("expected missing row, got found=%v err=%v", found, err)
	}

	if _, found, err := store.Lookup(context.Background(), "reservation_create", " "); err != nil || found {
		t.Fatalf("expected blank request id to skip the query, got found=%v err=%v", found, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProcessedStoreRecord(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newProcessedStoreWithExec(mock)

	mock.ExpectExec("INSERT INTO processed_requests").
		WithArgs("reservation_create", "req-3", "R261019-CD34").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	ok, err := store.Record(context.Background(), "reservation_create", "req-3", "R261019-CD34")
	if err != nil || !ok {
		t.Fatalf("expected record success, got %v %v", ok, err)
	}

	mock.ExpectExec("INSERT INTO processed_requests").
		WithArgs("reservation_create", "req-3", "R261019-CD34").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	ok, err = store.Record(context.Background(), "reservation_create", "req-3", "R261019-CD34")
	if err != nil || ok {
		t.Fatalf("expected duplicate to report false, got %v %v", ok, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProcessedStoreQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newProcessedStoreWithExec(mock)
	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT reference FROM processed_requests").WithArgs("reservation_create", "req-9").WillReturnError(boom)

	if _, _, err := store.Lookup(context.Background(), "reservation_create", "req-9"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
