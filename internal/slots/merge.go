package slots

import (
	"strings"
	"time"
)

// State is the slot view recomputed for every request. It is never persisted.
type State struct {
	Department    string
	DoctorName    string
	PreferredTime string
	ASAP          bool
	DayCandidates []int
}

// MergeDateWithTime combines a date hint with a time phrase. A time text that
// already names a date wins, which keeps the merge idempotent.
func MergeDateWithTime(timeText, dateText string) string {
	timeText = strings.TrimSpace(timeText)
	dateText = strings.TrimSpace(dateText)
	if dateText == "" {
		return timeText
	}
	if timeText == "" {
		return dateText
	}
	if hasDate(timeText) {
		return timeText
	}
	return dateText + " " + timeText
}

// ReplaceDate swaps whatever date timeText carries for dateText while keeping
// its time of day.
func ReplaceDate(timeText, dateText string) string {
	return MergeDateWithTime(stripDates(timeText), dateText)
}

// NormalizePreferredTime rewrites a merged date/time text into its canonical
// form: "M월 D일 오후 H시[ M분]", a partial of that, or the ASAP marker.
func NormalizePreferredTime(text string, asap bool, now time.Time) string {
	text = strings.TrimSpace(text)
	asap = asap || ContainsASAP(text)
	var parts []string
	if date := ExtractDatePhrase(text, now); date != "" {
		parts = append(parts, date)
	}
	tod := ExtractTimePhrase(text)
	if tod != "" {
		parts = append(parts, tod)
	}
	if asap {
		if _, _, ok := extractClock(text); !ok {
			if tod != "" {
				parts = parts[:len(parts)-1]
			}
			parts = append(parts, ASAPMarker)
		}
	}
	return strings.Join(parts, " ")
}

// HasSpecificTime reports whether text names both a date and an hour, which is
// the precision needed to book.
func HasSpecificTime(text string) bool {
	if !hasDate(text) {
		return false
	}
	_, _, ok := extractClock(text)
	return ok
}

// BuildTimeFollowupMessage asks for whichever part of a partial time is missing.
func BuildTimeFollowupMessage(preferred string) string {
	date := monthDayPattern.FindString(preferred)
	hour, minute, hasClock := extractClock(preferred)
	part := ""
	if m := partOfDayPattern.FindStringSubmatch(preferred); m != nil && !hasClock {
		part = m[1]
	}
	switch {
	case date != "" && part != "":
		return date + " " + part + " 몇 시로 예약할까요? 희망 시간을 알려주세요."
	case date != "" && !hasClock:
		return date + " 몇 시로 예약할까요? 희망 시간을 알려주세요."
	case hasClock && date == "":
		return FormatClock(hour, minute) + " 예약을 원하시는 날짜를 알려주세요."
	case part != "":
		return part + " 예약을 원하시는 날짜와 시간을 알려주세요."
	default:
		return "희망 날짜/시간을 알려주세요."
	}
}

// BuildDateSameMonth places day in base's month. It fails when that day does
// not exist in the month or is already behind base.
func BuildDateSameMonth(base time.Time, day int) (time.Time, bool) {
	base = truncateDay(base)
	d, ok := buildDate(base.Year(), int(base.Month()), day, base.Location())
	if !ok || d.Before(base) {
		return time.Time{}, false
	}
	return d, true
}

// BuildDateFromBaseDay returns the next month after base that has day.
func BuildDateFromBaseDay(base time.Time, day int) (time.Time, bool) {
	base = truncateDay(base)
	for i := 1; i <= 12; i++ {
		first := time.Date(base.Year(), base.Month()+time.Month(i), 1, 0, 0, 0, 0, base.Location())
		if d, ok := buildDate(first.Year(), int(first.Month()), day, base.Location()); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

// ResolveDay disambiguates a bare day of month against base: same month first,
// then the next month that has it.
func ResolveDay(base time.Time, day int) (time.Time, bool) {
	if d, ok := BuildDateSameMonth(base, day); ok {
		return d, true
	}
	return BuildDateFromBaseDay(base, day)
}

// ParsePreferredTime converts a normalized preferred time into a timestamp.
// hasClock is false for date-only or ASAP values.
func ParsePreferredTime(text string, now time.Time) (at time.Time, hasClock bool, ok bool) {
	date, ok := extractDate(text, now)
	if !ok {
		return time.Time{}, false, false
	}
	hour, minute, hasClock := extractClock(text)
	if !hasClock {
		return date, false, true
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), true, true
}
