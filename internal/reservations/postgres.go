package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const reservationColumns = `id, number, clinic_id, user_id, session_id, department, doctor_name, scheduled_for, asap, status, created_at, updated_at`

// PostgresRepository implements Repository and Directory on pgx.
type PostgresRepository struct {
	pool rowQuerier
}

// NewPostgresRepository creates a repository backed by pgx pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("reservations: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithExec(exec rowQuerier) *PostgresRepository {
	if exec == nil {
		panic("reservations: exec required")
	}
	return &PostgresRepository{pool: exec}
}

func (r *PostgresRepository) Create(ctx context.Context, res *Reservation) error {
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		res.ID, res.Number, res.ClinicID, res.UserID, res.SessionID, res.Department, res.DoctorName,
		toPGNullableTime(res.ScheduledFor), res.ASAP, string(res.Status), res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("reservations: insert: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, res *Reservation) error {
	query := `
		UPDATE reservations
		SET department = $2, doctor_name = $3, scheduled_for = $4, asap = $5, updated_at = $6
		WHERE id = $1 AND status = 'active'
	`
	ct, err := r.pool.Exec(ctx, query,
		res.ID, res.Department, res.DoctorName, toPGNullableTime(res.ScheduledFor), res.ASAP, res.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("reservations: update: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListActive(ctx context.Context, userID string) ([]Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at DESC`
	return r.list(ctx, "list active", query, userID)
}

// ListUpcoming returns active reservations at or after from, plus unscheduled
// ASAP requests, soonest first.
func (r *PostgresRepository) ListUpcoming(ctx context.Context, userID string, from time.Time) ([]Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1 AND status = 'active' AND (scheduled_for IS NULL OR scheduled_for >= $2)
		ORDER BY scheduled_for ASC NULLS LAST, created_at DESC`
	return r.list(ctx, "list upcoming", query, userID, from)
}

func (r *PostgresRepository) Latest(ctx context.Context, userID string) (*Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1`
	return r.one(ctx, "latest", query, userID)
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, userID, number string) (*Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1 AND number = $2`
	return r.one(ctx, "get by number", query, userID, number)
}

// Cancel marks the numbered reservations cancelled, or every active one when no
// numbers are given.
func (r *PostgresRepository) Cancel(ctx context.Context, userID string, numbers ...string) (int, error) {
	query := `
		UPDATE reservations
		SET status = 'cancelled', updated_at = now()
		WHERE user_id = $1 AND status = 'active' AND (cardinality($2::text[]) = 0 OR number = ANY($2))
	`
	if numbers == nil {
		numbers = []string{}
	}
	ct, err := r.pool.Exec(ctx, query, userID, numbers)
	if err != nil {
		return 0, fmt.Errorf("reservations: cancel: %w", err)
	}
	return int(ct.RowsAffected()), nil
}

func (r *PostgresRepository) one(ctx context.Context, op, query string, args ...any) (*Reservation, error) {
	res, err := scanReservation(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reservations: %s: %w", op, err)
	}
	return res, nil
}

func (r *PostgresRepository) list(ctx context.Context, op, query string, args ...any) ([]Reservation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reservations: %s: %w", op, err)
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("reservations: scan: %w", err)
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

func scanReservation(row pgx.Row) (*Reservation, error) {
	var (
		res       Reservation
		scheduled pgtype.Timestamptz
		status    string
	)
	if err := row.Scan(
		&res.ID, &res.Number, &res.ClinicID, &res.UserID, &res.SessionID, &res.Department, &res.DoctorName,
		&scheduled, &res.ASAP, &status, &res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if scheduled.Valid {
		t := scheduled.Time
		res.ScheduledFor = &t
	}
	res.Status = Status(status)
	return &res, nil
}

// Departments lists departments with at least one active doctor.
func (r *PostgresRepository) Departments(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT department FROM doctors WHERE active ORDER BY department`)
	if err != nil {
		return nil, fmt.Errorf("reservations: list departments: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var dept string
		if err := rows.Scan(&dept); err != nil {
			return nil, fmt.Errorf("reservations: scan department: %w", err)
		}
		out = append(out, dept)
	}
	return out, rows.Err()
}

// ListDoctors returns active doctors, optionally filtered by department.
func (r *PostgresRepository) ListDoctors(ctx context.Context, department string) ([]Doctor, error) {
	query := `
		SELECT id, name, department, title, specialty, active
		FROM doctors
		WHERE active AND ($1 = '' OR department = $1)
		ORDER BY department, name`
	rows, err := r.pool.Query(ctx, query, department)
	if err != nil {
		return nil, fmt.Errorf("reservations: list doctors: %w", err)
	}
	defer rows.Close()

	var out []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Department, &d.Title, &d.Specialty, &d.Active); err != nil {
			return nil, fmt.Errorf("reservations: scan doctor: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) FindDoctor(ctx context.Context, department, name string) (*Doctor, error) {
	query := `
		SELECT id, name, department, title, specialty, active
		FROM doctors
		WHERE active AND name = $1 AND ($2 = '' OR department = $2)
		ORDER BY department
		LIMIT 1`
	var d Doctor
	err := r.pool.QueryRow(ctx, query, name, department).Scan(&d.ID, &d.Name, &d.Department, &d.Title, &d.Specialty, &d.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reservations: find doctor: %w", err)
	}
	return &d, nil
}

func toPGNullableTime(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{
		Time:  *t,
		Valid: true,
	}
}
