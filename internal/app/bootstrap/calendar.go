package bootstrap

import (
	"context"
	"fmt"

	"github.com/wolfman30/reservation-dialogue/internal/clinic"
)

// holidayCalendars adds the configured holidays to every calendar it loads.
type holidayCalendars struct {
	store    clinic.CalendarStore
	timezone string
	holidays []string
}

func (c *holidayCalendars) Get(ctx context.Context, clinicID string) (*clinic.Calendar, error) {
	var cal *clinic.Calendar
	if c.store != nil {
		loaded, err := c.store.Get(ctx, clinicID)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load calendar: %w", err)
		}
		cal = loaded
	}
	if cal == nil {
		cal = clinic.DefaultCalendar(clinicID)
		if c.timezone != "" {
			cal.Timezone = c.timezone
		}
	}
	if len(c.holidays) == 0 {
		return cal, nil
	}
	return cal.WithHolidays(c.holidays...), nil
}
