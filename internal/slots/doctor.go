package slots

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var doctorTitlePattern = regexp.MustCompile(`(?:^|[^가-힣])([가-힣]{2,4})\s*(?:교수|의사|선생|원장|전문의|과장|의료진|쌤)`)

// Words that sit in front of a title without being a name ("다른 선생님").
var doctorStopWords = []string{
	"다른", "담당", "변경할", "해당", "주치", "전문", "우리", "어떤", "새로운", "기존", "이전", "같은",
	"여자", "남자", "여성", "남성", "좋은", "의사", "선생", "교수", "진료", "예약", "이번", "원래",
}

const koreanSurnames = "김이박최정강조윤장임한오서신권황안송전홍유고문양손배백허남심노하곽성차주우구민류나진지엄채원천방공현함변염여추도소석선설마길연위표명기반왕금옥육인맹제모탁국어은편용경봉사부가복태목형피두감"

// Leading words that look like a surname-initial token but never are.
var bareNameStopPrefixes = []string{
	"오늘", "오전", "오후", "모레", "이번", "이상", "이제", "이거", "이걸", "변경", "안돼", "안해", "안할", "안 ", "아니",
	"좋아", "그래", "괜찮", "상관", "정말", "진짜", "진료", "예약", "취소", "가능", "가장", "제일", "조금", "최대한",
	"다음", "주말", "평일", "저녁", "아침", "점심", "지금", "기다", "부탁", "고마", "감사", "확인", "문의", "전화",
	"도와", "신청", "방문", "고민", "연락", "나중", "천천", "성함", "이름", "한번", "한 번", "마지막", "처음", "수고",
	"전부", "모두", "전체", "나도", "지난", "제가", "저는", "제발", "우리", "어디", "어떻", "어느", "모르", "주세",
	"정도", "하루", "이요", "구경",
}

var bareNameSuffixes = []string{"선생님으로요", "교수님으로요", "선생님이요", "교수님이요", "선생님", "교수님", "으로요", "으로", "로요", "이요", "로", "요", "님", "씨"}

// ExtractDoctorName returns a doctor named with a title ("김민수 교수님").
func ExtractDoctorName(text string) string {
	for _, match := range doctorTitlePattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(match[1])
		if isDoctorStopWord(name) {
			continue
		}
		return name
	}
	return ""
}

// ExtractSelectedDoctorName handles replies to a doctor list: a titled name,
// or a bare name when the whole reply is just that name ("박서연으로요").
func ExtractSelectedDoctorName(text string) string {
	if name := ExtractDoctorName(text); name != "" {
		return name
	}
	return extractBareName(text)
}

func extractBareName(text string) string {
	fields := strings.Fields(strings.Trim(strings.TrimSpace(text), ".!?~ "))
	if len(fields) != 1 {
		return ""
	}
	token := fields[0]
	for _, suffix := range bareNameSuffixes {
		if strings.HasSuffix(token, suffix) && utf8.RuneCountInString(token) > utf8.RuneCountInString(suffix)+1 {
			token = strings.TrimSuffix(token, suffix)
			break
		}
	}
	count := utf8.RuneCountInString(token)
	if count < 2 || count > 4 {
		return ""
	}
	for _, r := range token {
		if !isHangul(r) {
			return ""
		}
	}
	first, _ := utf8.DecodeRuneInString(token)
	if !strings.ContainsRune(koreanSurnames, first) {
		return ""
	}
	for _, prefix := range bareNameStopPrefixes {
		if strings.HasPrefix(token, prefix) {
			return ""
		}
	}
	if IsDepartment(token) || strings.HasSuffix(token, "과") {
		return ""
	}
	return token
}

func isDoctorStopWord(name string) bool {
	if IsDepartment(name) || strings.HasSuffix(name, "과") {
		return true
	}
	for _, word := range doctorStopWords {
		if name == word || strings.HasSuffix(name, word) {
			return true
		}
	}
	return false
}
