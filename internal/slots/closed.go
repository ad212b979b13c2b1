package slots

import (
	"fmt"
	"time"
)

// Calendar reports the days the facility does not operate.
type Calendar interface {
	IsClosedOn(day time.Time) bool
}

// PastDateReply is returned for dates or times that have already passed.
const PastDateReply = "이미 지난 날짜나 시간입니다. 오늘 이후의 날짜와 시간을 알려주세요."

// ClosedDateMarker ends every closed-date reply.
const ClosedDateMarker = "휴진일입니다"

// ClosedDateReply names the closed day and asks for another one.
func ClosedDateReply(day time.Time) string {
	return fmt.Sprintf("%s(%s)은 "+ClosedDateMarker+". 다른 날짜를 알려주세요.", FormatDate(day), WeekdayName(day))
}

// RejectClosedDate returns a reply when the date in text is in the past or on
// a closed day, and "" when booking may proceed.
func RejectClosedDate(text string, now time.Time, cal Calendar) string {
	day, ok := extractDate(text, now)
	if !ok {
		return ""
	}
	today := truncateDay(now)
	if day.Before(today) {
		return PastDateReply
	}
	if hour, minute, ok := extractClock(text); ok && day.Equal(today) {
		if hour*60+minute <= now.Hour()*60+now.Minute() {
			return PastDateReply
		}
	}
	if cal != nil && cal.IsClosedOn(day) {
		return ClosedDateReply(day)
	}
	return ""
}
