package slots

import (
	"testing"
	"time"
)

var seoul = mustLocation("Asia/Seoul")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// Monday 2026-10-19 10:00 KST.
var testNow = time.Date(2026, 10, 19, 10, 0, 0, 0, seoul)

func TestExtractDepartment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"정형외과 예약하고 싶어요", "정형외과"},
		{"소화기내과로 잡아주세요", "소화기내과"},
		{"소아과 가고 싶어요", "소아청소년과"},
		{"내과 내일 2시", "내과"},
		{"불안과 우울이 심해요", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractDepartment(tt.in); got != tt.want {
			t.Fatalf("ExtractDepartment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatchSymptomDepartment(t *testing.T) {
	if got := MatchSymptomDepartment("허리가 너무 아파요"); got != "정형외과" {
		t.Fatalf("expected 정형외과, got %q", got)
	}
	if got := MatchSymptomDepartment("예약할게요"); got != "" {
		t.Fatalf("expected no department, got %q", got)
	}
}

func TestExtractDoctorName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"김민수 교수님으로 할게요", "김민수"},
		{"박서연 의료진으로 예약을 진행합니다.", "박서연"},
		{"내과 의료진을 선택해 주세요.", ""},
		{"다른 선생님으로 바꿔주세요", ""},
		{"변경할 의료진을 알려주세요.", ""},
	}
	for _, tt := range tests {
		if got := ExtractDoctorName(tt.in); got != tt.want {
			t.Fatalf("ExtractDoctorName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractSelectedDoctorName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"박서연으로요", "박서연"},
		{"이준호", "이준호"},
		{"김민수 선생님이요", "김민수"},
		{"네", ""},
		{"오늘요", ""},
		{"아니요", ""},
		{"내과로 할게요", ""},
	}
	for _, tt := range tests {
		if got := ExtractSelectedDoctorName(tt.in); got != tt.want {
			t.Fatalf("ExtractSelectedDoctorName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractDatePhrase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"내일 2시에 예약해줘", "10월 20일"},
		{"모레 오전", "10월 21일"},
		{"10월 25일로", "10월 25일"},
		{"2026-11-02 오후", "11월 2일"},
		{"11/3 가능할까요", "11월 3일"},
		{"다음주 수요일", "10월 28일"},
		{"이번 주 일요일", "10월 25일"},
		{"금요일에 갈게요", "10월 23일"},
		{"예약해줘", ""},
	}
	for _, tt := range tests {
		if got := ExtractDatePhrase(tt.in, testNow); got != tt.want {
			t.Fatalf("ExtractDatePhrase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDateOnlyRollsOverToNextYear(t *testing.T) {
	d, ok := ParseDateOnly("9월 1일", testNow)
	if !ok {
		t.Fatal("expected date")
	}
	if d.Year() != 2027 {
		t.Fatalf("expected next year for a date two months back, got %d", d.Year())
	}
	d, ok = ParseDateOnly("10월 1일", testNow)
	if !ok || d.Year() != 2026 {
		t.Fatalf("expected recent past date to stay in 2026, got %v %v", d, ok)
	}
}

func TestExtractDayOnly(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"19일로 해주세요", 19},
		{"10월 21일", 0},
		{"3일간 입원했어요", 0},
		{"예약", 0},
	}
	for _, tt := range tests {
		if got := ExtractDayOnly(tt.in); got != tt.want {
			t.Fatalf("ExtractDayOnly(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestExtractDayOnlyList(t *testing.T) {
	got := ExtractDayOnlyList("12일이랑 19일, 그리고 다시 12일")
	if len(got) != 2 || got[0] != 12 || got[1] != 19 {
		t.Fatalf("unexpected day list %v", got)
	}
}

func TestExtractNumericDay(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"19", 19},
		{"19요", 19},
		{"19일로", 19},
		{"40", 0},
		{"19명", 0},
	}
	for _, tt := range tests {
		if got := ExtractNumericDay(tt.in); got != tt.want {
			t.Fatalf("ExtractNumericDay(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestExtractTimePhrase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"내일 2시에", "오후 2시"},
		{"오전 9시 30분", "오전 9시 30분"},
		{"14:30", "오후 2시 30분"},
		{"3pm", "오후 3시"},
		{"10시 반", "오전 10시 30분"},
		{"8시", "오전 8시"},
		{"저녁에", "저녁"},
		{"2시간 뒤", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractTimePhrase(tt.in); got != tt.want {
			t.Fatalf("ExtractTimePhrase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHasTimeOrDateHint(t *testing.T) {
	if !HasTimeOrDateHint("내일 가능해요?") {
		t.Fatal("expected relative day to count as a hint")
	}
	if !HasTimeOrDateHint("19일") {
		t.Fatal("expected day-only to count as a hint")
	}
	if HasTimeOrDateHint("아니요 괜찮아요") {
		t.Fatal("expected no hint")
	}
}

func TestContainsASAP(t *testing.T) {
	if !ContainsASAP("가장 빠른 시간으로 잡아주세요") {
		t.Fatal("expected asap cue")
	}
	if ContainsASAP("오후 3시") {
		t.Fatal("unexpected asap cue")
	}
}
