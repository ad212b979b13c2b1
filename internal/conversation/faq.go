package conversation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/wolfman30/reservation-dialogue/internal/clinic"
	"github.com/wolfman30/reservation-dialogue/internal/intents"
)

// Answerer replies to utterances the resolver declined.
type Answerer interface {
	Answer(ctx context.Context, question, sessionID string, metadata map[string]string) (Reply, error)
}

// FAQEntry is a canned answer for a common hospital question.
type FAQEntry struct {
	Pattern *regexp.Regexp
	// Keywords match when at least two of them appear.
	Keywords []string
	Response string
}

var faqEntries = []FAQEntry{
	{
		Pattern:  regexp.MustCompile(`주차.*(가능|되나|요금|무료|할인|어디)|(가능|요금|무료|할인|어디).*주차`),
		Keywords: []string{"주차", "주차장", "차", "요금"},
		Response: "병원 지하 주차장을 이용하실 수 있습니다. 외래 진료 환자는 진료 당일 2시간 무료이며, 원무과에서 주차 등록을 해 주세요.",
	},
	{
		Pattern:  regexp.MustCompile(`(위치|주소|오시는 ?길|찾아가|지하철|버스).*(어디|알려|가나|가요)?`),
		Keywords: []string{"위치", "주소", "가는", "길"},
		Response: "병원은 지하철 2호선 역 3번 출구에서 도보 5분 거리에 있습니다. 정확한 주소는 홈페이지 오시는 길 메뉴에서 확인하실 수 있습니다.",
	},
	{
		Pattern:  regexp.MustCompile(`(진단서|소견서|진료 ?확인서|의무 ?기록|서류).*(발급|떼|받)`),
		Keywords: []string{"서류", "발급", "진단서", "소견서"},
		Response: "진단서와 소견서는 진료 후 담당 의료진이 작성하며, 1층 원무과에서 신분증을 지참하시면 발급받으실 수 있습니다.",
	},
	{
		Pattern:  regexp.MustCompile(`(면회|병문안).*(시간|가능|되나)`),
		Keywords: []string{"면회", "병문안", "시간"},
		Response: "입원 병동 면회는 평일 저녁 6시부터 8시, 주말 오전 10시부터 12시까지 가능하며 1인 1회로 제한됩니다.",
	},
	{
		Pattern:  regexp.MustCompile(`(건강 ?검진|검진).*(예약|준비|금식|시간)`),
		Keywords: []string{"검진", "금식", "준비"},
		Response: "건강검진 전날 저녁 9시 이후에는 금식해 주세요. 검진 예약과 항목 문의는 건강증진센터로 연락 주시면 안내해 드립니다.",
	},
}

var hoursPattern = regexp.MustCompile(`(진료 ?시간|운영 ?시간|영업 ?시간|몇 ?시(까지|부터)|문 ?(여|닫)|휴진|쉬는 ?날|점심 ?시간)`)

// FAQAnswerer answers from a fixed table of hospital questions. Opening hours
// are rendered from the clinic calendar.
type FAQAnswerer struct {
	entries    []FAQEntry
	classifier intents.TextClassifier
	calendar   *clinic.Calendar
	fallback   string
}

// NewFAQAnswerer creates an answerer. A nil calendar uses the default hours.
func NewFAQAnswerer(calendar *clinic.Calendar, supportPhone string) *FAQAnswerer {
	if calendar == nil {
		calendar = clinic.DefaultCalendar("")
	}
	if strings.TrimSpace(supportPhone) == "" {
		supportPhone = DefaultSupportPhone
	}
	return &FAQAnswerer{
		entries:    faqEntries,
		classifier: intents.Default(),
		calendar:   calendar,
		fallback:   fmt.Sprintf("문의하신 내용은 대표번호 %s으로 연락 주시면 자세히 안내해 드리겠습니다.", supportPhone),
	}
}

func (a *FAQAnswerer) Answer(ctx context.Context, question, sessionID string, metadata map[string]string) (Reply, error) {
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return Reply{Text: a.fallback}, nil
	}
	if hoursPattern.MatchString(question) {
		return Reply{Text: DescribeHours(a.calendar)}, nil
	}
	if text, ok := matchFAQ(a.entries, question); ok {
		return Reply{Text: text}, nil
	}
	if a.classifier.HasBookingIntent(question) {
		return Reply{Text: intents.DepartmentAndTimeAsk}, nil
	}
	return Reply{Text: a.fallback}, nil
}

func matchFAQ(entries []FAQEntry, message string) (string, bool) {
	for _, faq := range entries {
		if faq.Pattern != nil && faq.Pattern.MatchString(message) {
			return faq.Response, true
		}
		matchCount := 0
		for _, kw := range faq.Keywords {
			if strings.Contains(message, kw) {
				matchCount++
			}
		}
		if matchCount >= 2 {
			return faq.Response, true
		}
	}
	return "", false
}

var hoursDays = []struct {
	label   string
	weekday time.Weekday
}{
	{"월", time.Monday}, {"화", time.Tuesday}, {"수", time.Wednesday}, {"목", time.Thursday},
	{"금", time.Friday}, {"토", time.Saturday}, {"일", time.Sunday},
}

// DescribeHours summarises the weekly hours of cal, folding consecutive days
// with the same session: "월~금 09:00~18:00(점심 13:00~14:00), 토 09:00~13:00, 일 휴진".
func DescribeHours(cal *clinic.Calendar) string {
	if cal == nil || len(cal.Hours) == 0 {
		return "진료 시간은 진료과별로 다릅니다. 원하시는 진료과를 알려주시면 안내해 드리겠습니다."
	}
	var parts []string
	start := 0
	for i := 1; i <= len(hoursDays); i++ {
		if i < len(hoursDays) && sameSession(cal, hoursDays[start].weekday, hoursDays[i].weekday) {
			continue
		}
		label := hoursDays[start].label
		if i-1 > start {
			label += "~" + hoursDays[i-1].label
		}
		parts = append(parts, label+" "+describeSession(cal, hoursDays[start].weekday))
		start = i
	}
	text := "진료 시간은 " + strings.Join(parts, ", ") + "입니다."
	if len(cal.Holidays) > 0 {
		text += " 공휴일은 휴진합니다."
	}
	return text
}

func describeSession(cal *clinic.Calendar, day time.Weekday) string {
	s, ok := cal.Hours.On(day)
	if !ok {
		return "휴진"
	}
	text := s.Open + "~" + s.Close
	if s.LunchStart != "" && s.LunchEnd != "" {
		text += "(점심 " + s.LunchStart + "~" + s.LunchEnd + ")"
	}
	return text
}

func sameSession(cal *clinic.Calendar, a, b time.Weekday) bool {
	sa, okA := cal.Hours.On(a)
	sb, okB := cal.Hours.On(b)
	return okA == okB && sa == sb
}
