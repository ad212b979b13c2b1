package events

import (
	"time"

	"github.com/google/uuid"
)

// Reservation event types.
const (
	TypeReservationCreated     = "reservation.created.v1"
	TypeReservationRescheduled = "reservation.rescheduled.v1"
	TypeReservationCancelled   = "reservation.cancelled.v1"
)

// ReservationEvent is emitted whenever a tool changes a reservation.
type ReservationEvent struct {
	EventID       string     `json:"event_id"`
	Type          string     `json:"type"`
	ClinicID      string     `json:"clinic_id"`
	ReservationID string     `json:"reservation_id"`
	Number        string     `json:"reservation_number"`
	UserID        string     `json:"user_id"`
	SessionID     string     `json:"session_id,omitempty"`
	RequestID     string     `json:"request_id,omitempty"`
	Department    string     `json:"department"`
	DoctorName    string     `json:"doctor_name,omitempty"`
	ScheduledFor  *time.Time `json:"scheduled_for,omitempty"`
	ASAP          bool       `json:"asap,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// Stamp fills in an event id and occurrence time when missing.
func (e ReservationEvent) Stamp(now time.Time) ReservationEvent {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = now.UTC()
	}
	return e
}
