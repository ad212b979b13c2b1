package reservations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reservationRowColumns = []string{
	"id", "number", "clinic_id", "user_id", "session_id", "department", "doctor_name",
	"scheduled_for", "asap", "status", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return newPostgresRepositoryWithExec(mock), mock
}

func TestPostgresRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC)
	res := NewReservation(now)
	res.UserID = "u-1"
	res.Department = "내과"
	res.DoctorName = "김민수"

	mock.ExpectExec("INSERT INTO reservations").
		WithArgs(res.ID, res.Number, "", "u-1", "", "내과", "김민수", pgxmock.AnyArg(), false, "active", now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), res))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_LatestScansNullableTime(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	created := time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC)
	scheduled := time.Date(2026, 10, 20, 5, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM reservations").WithArgs("u-1").WillReturnRows(
		pgxmock.NewRows(reservationRowColumns).
			AddRow(id, "R261019-AAAA", "default", "u-1", "s-1", "내과", "김민수", scheduled, false, "active", created, created),
	)

	res, err := repo.Latest(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, id, res.ID)
	assert.Equal(t, StatusActive, res.Status)
	require.NotNil(t, res.ScheduledFor)
	assert.True(t, res.ScheduledFor.Equal(scheduled))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_LatestNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM reservations").WithArgs("u-1").WillReturnError(pgx.ErrNoRows)

	_, err := repo.Latest(context.Background(), "u-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresRepository_ListUpcoming(t *testing.T) {
	repo, mock := newMockRepo(t)
	from := time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC)
	created := from.Add(-time.Hour)

	mock.ExpectQuery("scheduled_for >= \\$2").WithArgs("u-1", from).WillReturnRows(
		pgxmock.NewRows(reservationRowColumns).
			AddRow(uuid.New(), "R1", "default", "u-1", "", "내과", "김민수", from.Add(24*time.Hour), false, "active", created, created).
			AddRow(uuid.New(), "R2", "default", "u-1", "", "피부과", "최유진", nil, true, "active", created, created),
	)

	list, err := repo.ListUpcoming(context.Background(), "u-1", from)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.NotNil(t, list[0].ScheduledFor)
	assert.Nil(t, list[1].ScheduledFor)
	assert.True(t, list[1].ASAP)
}

func TestPostgresRepository_UpdateMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	res := &Reservation{ID: uuid.New(), Department: "내과"}
	mock.ExpectExec("UPDATE reservations").
		WithArgs(res.ID, "내과", "", pgxmock.AnyArg(), false, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, repo.Update(context.Background(), res), ErrNotFound)
}

func TestPostgresRepository_Cancel(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("SET status = 'cancelled'").WithArgs("u-1", []string{"R1"}).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	n, err := repo.Cancel(context.Background(), "u-1", "R1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	mock.ExpectExec("SET status = 'cancelled'").WithArgs("u-1", []string{}).WillReturnResult(pgxmock.NewResult("UPDATE", 3))
	n, err = repo.Cancel(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	boom := errors.New("deadlock")
	mock.ExpectExec("SET status = 'cancelled'").WithArgs("u-1", []string{}).WillReturnError(boom)
	_, err = repo.Cancel(context.Background(), "u-1")
	assert.ErrorIs(t, err, boom)
}

func TestPostgresRepository_Directory(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT DISTINCT department").WillReturnRows(
		pgxmock.NewRows([]string{"department"}).AddRow("내과").AddRow("피부과"),
	)
	depts, err := repo.Departments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"내과", "피부과"}, depts)

	doctorCols := []string{"id", "name", "department", "title", "specialty", "active"}
	mock.ExpectQuery("FROM doctors").WithArgs("내과").WillReturnRows(
		pgxmock.NewRows(doctorCols).AddRow("d-1", "김민수", "내과", "교수", "소화기내과", true),
	)
	docs, err := repo.ListDoctors(ctx, "내과")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "김민수", docs[0].Name)

	mock.ExpectQuery("FROM doctors").WithArgs("홍길동", "내과").WillReturnError(pgx.ErrNoRows)
	_, err = repo.FindDoctor(ctx, "내과", "홍길동")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
