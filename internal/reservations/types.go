// Package reservations stores appointments and the doctor directory behind the
// reservation tools.
package reservations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a reservation or doctor does not exist.
var ErrNotFound = errors.New("reservations: not found")

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// Reservation is a single appointment request.
type Reservation struct {
	ID           uuid.UUID  `json:"id"`
	Number       string     `json:"number"`
	ClinicID     string     `json:"clinic_id"`
	UserID       string     `json:"user_id"`
	SessionID    string     `json:"session_id,omitempty"`
	Department   string     `json:"department"`
	DoctorName   string     `json:"doctor_name"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	ASAP         bool       `json:"asap"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Doctor is a directory entry.
type Doctor struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Title      string `json:"title"`
	Specialty  string `json:"specialty,omitempty"`
	Active     bool   `json:"active"`
}

// Repository persists reservations. Every lookup is scoped to a user.
type Repository interface {
	Create(ctx context.Context, r *Reservation) error
	Update(ctx context.Context, r *Reservation) error
	ListActive(ctx context.Context, userID string) ([]Reservation, error)
	ListUpcoming(ctx context.Context, userID string, from time.Time) ([]Reservation, error)
	Latest(ctx context.Context, userID string) (*Reservation, error)
	GetByNumber(ctx context.Context, userID, number string) (*Reservation, error)
	Cancel(ctx context.Context, userID string, numbers ...string) (int, error)
}

// Directory lists departments and the doctors working in them.
type Directory interface {
	Departments(ctx context.Context) ([]string, error)
	ListDoctors(ctx context.Context, department string) ([]Doctor, error)
	FindDoctor(ctx context.Context, department, name string) (*Doctor, error)
}

// NewNumber builds a human-readable reservation number such as R261020-3F2A.
func NewNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return "R" + now.Format("060102") + "-" + suffix
}

// NewReservation fills the generated fields of a reservation.
func NewReservation(now time.Time) *Reservation {
	return &Reservation{
		ID:        uuid.New(),
		Number:    NewNumber(now),
		Status:    StatusActive,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}
