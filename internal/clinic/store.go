package clinic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Store persists clinic calendars in Redis.
type Store struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewStore creates a new clinic calendar store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{
		redis:  redisClient,
		tracer: otel.Tracer("reservation.internal.clinic.store"),
	}
}

func (s *Store) key(clinicID string) string {
	return fmt.Sprintf("clinic:calendar:%s", clinicID)
}

// Get retrieves a clinic calendar, returning the default if not found.
func (s *Store) Get(ctx context.Context, clinicID string) (*Calendar, error) {
	ctx, span := s.tracer.Start(ctx, "clinic.calendar.get")
	defer span.End()

	data, err := s.redis.Get(ctx, s.key(clinicID)).Bytes()
	if err == redis.Nil {
		return DefaultCalendar(clinicID), nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("clinic: get calendar: %w", err)
	}

	var cal Calendar
	if err := json.Unmarshal(data, &cal); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("clinic: unmarshal calendar: %w", err)
	}
	return &cal, nil
}

// Set saves a clinic calendar.
func (s *Store) Set(ctx context.Context, cal *Calendar) error {
	data, err := json.Marshal(cal)
	if err != nil {
		return fmt.Errorf("clinic: marshal calendar: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(cal.ClinicID), data, 0).Err(); err != nil {
		return fmt.Errorf("clinic: set calendar: %w", err)
	}
	return nil
}

// AddHoliday marks date (YYYY-MM-DD) closed for the clinic.
func (s *Store) AddHoliday(ctx context.Context, clinicID, date string) error {
	if _, err := parseHoliday(date); err != nil {
		return fmt.Errorf("clinic: invalid holiday %q: %w", date, err)
	}
	cal, err := s.Get(ctx, clinicID)
	if err != nil {
		return err
	}
	for _, h := range cal.Holidays {
		if h == date {
			return nil
		}
	}
	cal.Holidays = append(cal.Holidays, date)
	return s.Set(ctx, cal)
}

func parseHoliday(date string) (time.Time, error) {
	return time.Parse(holidayLayout, date)
}
