package slots

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ASAPMarker stands in for an exact time when the patient wants the earliest slot.
const ASAPMarker = "가능한 빠른 시간"

var (
	isoDatePattern      = regexp.MustCompile(`(\d{4})[-./](\d{1,2})[-./](\d{1,2})`)
	monthDayPattern     = regexp.MustCompile(`(\d{1,2})\s*월\s*(\d{1,2})\s*일`)
	slashDatePattern    = regexp.MustCompile(`(?:^|[^\d/:])(\d{1,2})/(\d{1,2})(?:[^\d/]|$)`)
	weekdayPattern      = regexp.MustCompile(`(다다음\s*주|다음\s*주|담주|이번\s*주|금주)?\s*([월화수목금토일])요일`)
	dayOnlyPattern      = regexp.MustCompile(`(\d{1,2})\s*일`)
	hourPattern         = regexp.MustCompile(`(오전|오후|아침|낮|점심|저녁|밤|새벽)?\s*(\d{1,2})\s*시(?:\s*(\d{1,2})\s*분|\s*(반))?`)
	clockPattern        = regexp.MustCompile(`(오전|오후|아침|낮|점심|저녁|밤|새벽)?\s*(\d{1,2}):(\d{2})`)
	englishHourPattern  = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	partOfDayPattern    = regexp.MustCompile(`(오전|오후|아침|점심|저녁)`)
	numericDayReply     = regexp.MustCompile(`^(\d{1,2})\s*(?:일)?\s*(?:이요|요|로요|로|으로|에|이)?\s*(?:할게요|해주세요|해 주세요|부탁해요|부탁드려요)?[\s.!?~]*$`)
	relativeDayWords    = []struct {
		word   string
		offset int
	}{
		{"내일모레", 2},
		{"오늘", 0},
		{"내일", 1},
		{"모레", 2},
		{"글피", 3},
	}
	timeHintWords = []string{"오늘", "내일", "모레", "글피", "오전", "오후", "아침", "점심", "저녁", "주말", "평일", "요일", "다음주", "다음 주", "이번주", "이번 주"}
	asapCues      = []string{"가능한 빨리", "가능한 빠른", "최대한 빨리", "가장 빠른", "제일 빠른", "빠른 시간", "빨리", "아무 때나", "아무때나", "언제든", "asap", "ASAP"}
)

var weekdayIndex = map[string]time.Weekday{
	"일": time.Sunday, "월": time.Monday, "화": time.Tuesday, "수": time.Wednesday,
	"목": time.Thursday, "금": time.Friday, "토": time.Saturday,
}

var weekdayNames = [...]string{"일", "월", "화", "수", "목", "금", "토"}

// ExtractDatePhrase finds a calendar date in text and returns it in the
// canonical "M월 D일" form. Relative words resolve against now.
func ExtractDatePhrase(text string, now time.Time) string {
	if d, ok := extractDate(text, now); ok {
		return FormatDate(d)
	}
	return ""
}

func extractDate(text string, now time.Time) (time.Time, bool) {
	if strings.TrimSpace(text) == "" {
		return time.Time{}, false
	}
	today := truncateDay(now)
	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if d, ok := buildDate(year, month, day, today.Location()); ok {
			return d, true
		}
	}
	if m := monthDayPattern.FindStringSubmatch(text); m != nil {
		if d, ok := monthDayDate(m[1], m[2], today); ok {
			return d, true
		}
	}
	if m := slashDatePattern.FindStringSubmatch(text); m != nil {
		if d, ok := monthDayDate(m[1], m[2], today); ok {
			return d, true
		}
	}
	for _, rel := range relativeDayWords {
		if strings.Contains(text, rel.word) {
			return today.AddDate(0, 0, rel.offset), true
		}
	}
	if m := weekdayPattern.FindStringSubmatch(text); m != nil {
		return weekdayDate(strings.ReplaceAll(m[1], " ", ""), weekdayIndex[m[2]], today), true
	}
	return time.Time{}, false
}

// ParseDateOnly turns a date phrase into a date. Month/day phrases carry no
// year: they land in the current year unless that is more than a month in the
// past, in which case the patient means next year.
func ParseDateOnly(phrase string, now time.Time) (time.Time, bool) {
	return extractDate(phrase, now)
}

func monthDayDate(monthStr, dayStr string, today time.Time) (time.Time, bool) {
	month, _ := strconv.Atoi(monthStr)
	day, _ := strconv.Atoi(dayStr)
	d, ok := buildDate(today.Year(), month, day, today.Location())
	if !ok {
		return time.Time{}, false
	}
	if d.Before(today.AddDate(0, -1, 0)) {
		if next, ok := buildDate(today.Year()+1, month, day, today.Location()); ok {
			return next, true
		}
	}
	return d, true
}

func buildDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if d.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return d, true
}

func weekdayDate(prefix string, target time.Weekday, today time.Time) time.Time {
	// weeks start on Monday
	offsetFromMonday := (int(today.Weekday()) + 6) % 7
	monday := today.AddDate(0, 0, -offsetFromMonday)
	targetOffset := (int(target) + 6) % 7
	switch prefix {
	case "이번주", "금주":
		return monday.AddDate(0, 0, targetOffset)
	case "다음주", "담주":
		return monday.AddDate(0, 0, 7+targetOffset)
	case "다다음주":
		return monday.AddDate(0, 0, 14+targetOffset)
	default:
		diff := (int(target) - int(today.Weekday()) + 7) % 7
		return today.AddDate(0, 0, diff)
	}
}

// FormatDate renders a date as "M월 D일".
func FormatDate(d time.Time) string {
	return fmt.Sprintf("%d월 %d일", int(d.Month()), d.Day())
}

// WeekdayName returns the one-syllable Korean weekday name.
func WeekdayName(d time.Time) string {
	return weekdayNames[d.Weekday()]
}

// ExtractDayOnly returns a bare day-of-month ("19일") that is not part of a
// full date.
func ExtractDayOnly(text string) int {
	stripped := stripFullDates(text)
	for _, idx := range dayOnlyPattern.FindAllStringSubmatchIndex(stripped, -1) {
		if strings.HasPrefix(stripped[idx[1]:], "간") || strings.HasPrefix(stripped[idx[1]:], "째") {
			continue
		}
		if day, err := strconv.Atoi(stripped[idx[2]:idx[3]]); err == nil && day >= 1 && day <= 31 {
			return day
		}
	}
	return 0
}

// ExtractDayOnlyList returns every distinct day-of-month mentioned, in order
// of appearance, including the day part of full dates.
func ExtractDayOnlyList(text string) []int {
	var out []int
	seen := map[int]struct{}{}
	for _, m := range dayOnlyPattern.FindAllStringSubmatch(text, -1) {
		day, err := strconv.Atoi(m[1])
		if err != nil || day < 1 || day > 31 {
			continue
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	return out
}

// ExtractNumericDay accepts a reply that is only a number ("19", "19요").
func ExtractNumericDay(text string) int {
	m := numericDayReply.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0
	}
	day, err := strconv.Atoi(m[1])
	if err != nil || day < 1 || day > 31 {
		return 0
	}
	return day
}

// ExtractTimePhrase returns the time of day in text in canonical form
// ("오후 2시", "오전 9시 30분"), or a bare part of day ("오후") when no hour
// is given. Hours 1-7 without 오전/오후 are read as afternoon.
func ExtractTimePhrase(text string) string {
	if hour, minute, ok := extractClock(text); ok {
		return FormatClock(hour, minute)
	}
	if m := partOfDayPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// ExtractNumericHour returns the 24-hour clock hour mentioned in text.
func ExtractNumericHour(text string) (int, bool) {
	hour, _, ok := extractClock(text)
	return hour, ok
}

// ExtractClock returns the 24-hour clock named in text.
func ExtractClock(text string) (hour, minute int, ok bool) {
	return extractClock(text)
}

func extractClock(text string) (int, int, bool) {
	if strings.TrimSpace(text) == "" {
		return 0, 0, false
	}
	if m := clockPattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[2])
		minute, _ := strconv.Atoi(m[3])
		if h, ok := applyMeridiem(m[1], hour); ok && minute < 60 {
			return h, minute, true
		}
	}
	if m := englishHourPattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		marker := "오전"
		if strings.EqualFold(m[3], "pm") {
			marker = "오후"
		}
		if h, ok := applyMeridiem(marker, hour); ok && minute < 60 {
			return h, minute, true
		}
	}
	for _, idx := range hourPattern.FindAllStringSubmatchIndex(text, -1) {
		if strings.HasPrefix(text[idx[1]:], "간") {
			continue
		}
		marker := ""
		if idx[2] >= 0 {
			marker = text[idx[2]:idx[3]]
		}
		hour, _ := strconv.Atoi(text[idx[4]:idx[5]])
		minute := 0
		if idx[6] >= 0 {
			minute, _ = strconv.Atoi(text[idx[6]:idx[7]])
		} else if idx[8] >= 0 {
			minute = 30
		}
		if h, ok := applyMeridiem(marker, hour); ok && minute < 60 {
			return h, minute, true
		}
	}
	return 0, 0, false
}

func applyMeridiem(marker string, hour int) (int, bool) {
	if hour < 0 || hour > 24 {
		return 0, false
	}
	switch marker {
	case "오후", "저녁", "밤":
		if hour < 12 {
			hour += 12
		}
	case "낮", "점심":
		if hour < 6 {
			hour += 12
		}
	case "오전", "아침", "새벽":
		if hour == 12 {
			hour = 0
		}
	default:
		if hour >= 1 && hour <= 7 {
			hour += 12
		}
	}
	if hour == 24 {
		hour = 0
	}
	return hour, true
}

// FormatClock renders a 24-hour time as "오전/오후 H시[ M분]".
func FormatClock(hour, minute int) string {
	marker := "오전"
	display := hour
	if hour >= 12 {
		marker = "오후"
		if hour > 12 {
			display = hour - 12
		}
	}
	if hour == 0 {
		display = 12
	}
	if minute > 0 {
		return fmt.Sprintf("%s %d시 %d분", marker, display, minute)
	}
	return fmt.Sprintf("%s %d시", marker, display)
}

// HasTimeOrDateHint reports whether text carries any scheduling information.
func HasTimeOrDateHint(text string) bool {
	if text == "" {
		return false
	}
	if hasDate(text) || dayOnlyPattern.MatchString(text) {
		return true
	}
	if _, _, ok := extractClock(text); ok {
		return true
	}
	for _, word := range timeHintWords {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

// ContainsASAP reports an "as soon as possible" request.
func ContainsASAP(text string) bool {
	if strings.Contains(text, ASAPMarker) {
		return true
	}
	for _, cue := range asapCues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}

// hasDate reports a date that extractDate can turn into a calendar day, so
// "24/7" is not a date.
func hasDate(text string) bool {
	_, ok := extractDate(text, time.Now())
	return ok
}

func stripFullDates(text string) string {
	text = isoDatePattern.ReplaceAllString(text, " ")
	return monthDayPattern.ReplaceAllString(text, " ")
}

func stripDates(text string) string {
	text = stripFullDates(text)
	text = slashDatePattern.ReplaceAllString(text, " ")
	text = weekdayPattern.ReplaceAllString(text, " ")
	for _, rel := range relativeDayWords {
		text = strings.ReplaceAll(text, rel.word, " ")
	}
	return strings.Join(strings.Fields(text), " ")
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
