package clinic

import (
	"testing"
	"time"
)

func seoul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestDefaultCalendar_ClosedOnSunday(t *testing.T) {
	cal := DefaultCalendar("c1")
	loc := seoul(t)

	sunday := time.Date(2026, 10, 25, 0, 0, 0, 0, loc)
	monday := time.Date(2026, 10, 26, 0, 0, 0, 0, loc)
	saturday := time.Date(2026, 10, 24, 0, 0, 0, 0, loc)

	if !cal.IsClosedOn(sunday) {
		t.Fatalf("expected Sunday closed")
	}
	if cal.IsClosedOn(monday) {
		t.Fatalf("expected Monday open")
	}
	if cal.IsClosedOn(saturday) {
		t.Fatalf("expected Saturday open")
	}
}

func TestCalendar_Holidays(t *testing.T) {
	cal := DefaultCalendar("c1").WithHolidays("2026-10-20")
	loc := seoul(t)

	if !cal.IsClosedOn(time.Date(2026, 10, 20, 9, 0, 0, 0, loc)) {
		t.Fatalf("expected holiday to be closed")
	}
	if cal.IsClosedOn(time.Date(2026, 10, 21, 9, 0, 0, 0, loc)) {
		t.Fatalf("expected day after holiday open")
	}
	if cal.IsOpenAt(time.Date(2026, 10, 20, 10, 0, 0, 0, loc)) {
		t.Fatalf("expected closed during holiday hours")
	}
}

func TestCalendar_NoHoursIsAlwaysOpen(t *testing.T) {
	cal := &Calendar{ClinicID: "c1", Timezone: "Asia/Seoul"}
	sunday := time.Date(2026, 10, 25, 0, 0, 0, 0, seoul(t))
	if cal.IsClosedOn(sunday) {
		t.Fatalf("appointment-only clinic should never be closed")
	}
}

func TestCalendar_NilIsOpen(t *testing.T) {
	var cal *Calendar
	if cal.IsClosedOn(time.Now()) {
		t.Fatalf("nil calendar should report open")
	}
}

func TestCalendar_IsOpenAt(t *testing.T) {
	cal := DefaultCalendar("c1")
	loc := seoul(t)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"weekday morning", time.Date(2026, 10, 19, 9, 30, 0, 0, loc), true},
		{"lunch break", time.Date(2026, 10, 19, 13, 30, 0, 0, loc), false},
		{"after lunch", time.Date(2026, 10, 19, 14, 0, 0, 0, loc), true},
		{"weekday before open", time.Date(2026, 10, 19, 8, 59, 0, 0, loc), false},
		{"weekday at close", time.Date(2026, 10, 19, 18, 0, 0, 0, loc), false},
		{"saturday afternoon", time.Date(2026, 10, 24, 14, 0, 0, 0, loc), false},
		{"saturday morning", time.Date(2026, 10, 24, 10, 0, 0, 0, loc), true},
		{"sunday", time.Date(2026, 10, 25, 10, 0, 0, 0, loc), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.IsOpenAt(tt.at); got != tt.want {
				t.Fatalf("IsOpenAt(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestCalendar_NextOpenDay(t *testing.T) {
	loc := seoul(t)
	cal := DefaultCalendar("c1").WithHolidays("2026-10-26")

	got := cal.NextOpenDay(time.Date(2026, 10, 25, 15, 0, 0, 0, loc))
	want := time.Date(2026, 10, 27, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("NextOpenDay = %v, want %v", got, want)
	}
}

func TestCalendar_WithHolidaysCopies(t *testing.T) {
	base := DefaultCalendar("c1")
	_ = base.WithHolidays("2026-12-25")
	if len(base.Holidays) != 0 {
		t.Fatalf("expected base calendar untouched, got %v", base.Holidays)
	}
}

func TestWeeklyHours_Validate(t *testing.T) {
	if err := DefaultCalendar("c1").Hours.Validate(); err != nil {
		t.Fatalf("default hours invalid: %v", err)
	}
	bad := []WeeklyHours{
		{"funday": {Open: "09:00", Close: "18:00"}},
		{"monday": {Open: "18:00", Close: "09:00"}},
		{"monday": {Open: "9시", Close: "18:00"}},
		{"monday": {Open: "09:00", Close: "18:00", LunchStart: "13:00"}},
		{"monday": {Open: "09:00", Close: "12:00", LunchStart: "12:30", LunchEnd: "13:30"}},
	}
	for _, hours := range bad {
		if err := hours.Validate(); err == nil {
			t.Fatalf("expected %v to be rejected", hours)
		}
	}
}
