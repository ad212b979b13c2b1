// Package clinic holds the clinic calendar: weekly opening hours and holidays
// used to reject bookings on closed days.
package clinic

import (
	"fmt"
	"strings"
	"time"
)

// Session is one day of outpatient hours. Times are "HH:MM" in the clinic
// timezone; the lunch break is optional.
type Session struct {
	Open       string `json:"open"`
	Close      string `json:"close"`
	LunchStart string `json:"lunch_start,omitempty"`
	LunchEnd   string `json:"lunch_end,omitempty"`
}

// WeeklyHours maps lowercase English weekday names ("monday") to a session.
// A missing day is a day off.
type WeeklyHours map[string]Session

// On returns the session for weekday.
func (w WeeklyHours) On(weekday time.Weekday) (Session, bool) {
	s, ok := w[strings.ToLower(weekday.String())]
	return s, ok
}

// Validate checks day names and clock values.
func (w WeeklyHours) Validate() error {
	for day, s := range w {
		if _, ok := weekdayNames[day]; !ok {
			return fmt.Errorf("clinic: unknown weekday %q", day)
		}
		open, ok1 := clockMinutes(s.Open)
		closing, ok2 := clockMinutes(s.Close)
		if !ok1 || !ok2 || open >= closing {
			return fmt.Errorf("clinic: invalid hours for %s", day)
		}
		if s.LunchStart == "" && s.LunchEnd == "" {
			continue
		}
		ls, ok1 := clockMinutes(s.LunchStart)
		le, ok2 := clockMinutes(s.LunchEnd)
		if !ok1 || !ok2 || ls >= le || ls < open || le > closing {
			return fmt.Errorf("clinic: invalid lunch break for %s", day)
		}
	}
	return nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

// Calendar is a clinic's operating schedule.
type Calendar struct {
	ClinicID string      `json:"clinic_id"`
	Timezone string      `json:"timezone"`
	Hours    WeeklyHours `json:"hours"`
	// Holidays are closed dates in YYYY-MM-DD form.
	Holidays []string `json:"holidays,omitempty"`
}

const holidayLayout = "2006-01-02"

// DefaultCalendar is a typical outpatient week: weekdays with a lunch break,
// Saturday mornings, Sundays off.
func DefaultCalendar(clinicID string) *Calendar {
	weekday := Session{Open: "09:00", Close: "18:00", LunchStart: "13:00", LunchEnd: "14:00"}
	return &Calendar{
		ClinicID: clinicID,
		Timezone: "Asia/Seoul",
		Hours: WeeklyHours{
			"monday":    weekday,
			"tuesday":   weekday,
			"wednesday": weekday,
			"thursday":  weekday,
			"friday":    weekday,
			"saturday":  {Open: "09:00", Close: "13:00"},
		},
	}
}

// Location resolves the calendar timezone, falling back to UTC.
func (c *Calendar) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

// IsHoliday reports whether day is listed as a holiday.
func (c *Calendar) IsHoliday(day time.Time) bool {
	key := day.In(c.Location()).Format(holidayLayout)
	for _, h := range c.Holidays {
		if h == key {
			return true
		}
	}
	return false
}

// IsClosedOn reports whether the clinic is closed for the whole of day. With no
// hours configured at all the clinic is treated as appointment-only and open.
func (c *Calendar) IsClosedOn(day time.Time) bool {
	if c == nil {
		return false
	}
	if c.IsHoliday(day) {
		return true
	}
	if len(c.Hours) == 0 {
		return false
	}
	noon := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, c.Location())
	_, open := c.Hours.On(noon.Weekday())
	return !open
}

// IsOpenAt reports whether t falls inside outpatient hours, outside lunch.
func (c *Calendar) IsOpenAt(t time.Time) bool {
	if c == nil {
		return true
	}
	local := t.In(c.Location())
	if c.IsHoliday(local) {
		return false
	}
	if len(c.Hours) == 0 {
		return true
	}
	s, ok := c.Hours.On(local.Weekday())
	if !ok {
		return false
	}
	now := local.Hour()*60 + local.Minute()
	open, ok1 := clockMinutes(s.Open)
	closing, ok2 := clockMinutes(s.Close)
	if !ok1 || !ok2 || now < open || now >= closing {
		return false
	}
	if ls, ok := clockMinutes(s.LunchStart); ok {
		if le, ok := clockMinutes(s.LunchEnd); ok && now >= ls && now < le {
			return false
		}
	}
	return true
}

// NextOpenDay returns the first day on or after from that is not closed.
// It gives up after 60 days and returns from unchanged.
func (c *Calendar) NextOpenDay(from time.Time) time.Time {
	local := from.In(c.Location())
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	for i := 0; i < 60; i++ {
		candidate := day.AddDate(0, 0, i)
		if !c.IsClosedOn(candidate) {
			return candidate
		}
	}
	return day
}

// WithHolidays returns a copy with extra holidays appended.
func (c *Calendar) WithHolidays(days ...string) *Calendar {
	cp := *c
	cp.Holidays = append(append([]string(nil), c.Holidays...), days...)
	return &cp
}

// clockMinutes parses "HH:MM" into minutes after midnight.
func clockMinutes(v string) (int, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
