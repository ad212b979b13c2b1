// Package slots extracts reservation slots (department, doctor, date, time,
// urgency) from free Korean text and merges them into booking-ready values.
package slots

import (
	"strings"
	"unicode/utf8"
)

// Departments is the built-in department roster. It doubles as the fallback
// list when the doctor directory is unavailable.
var Departments = []string{
	"내과", "소화기내과", "호흡기내과", "심장내과", "내분비내과", "신장내과", "감염내과", "류마티스내과", "혈액종양내과",
	"외과", "정형외과", "신경외과", "흉부외과", "성형외과",
	"신경과", "소아청소년과", "산부인과", "비뇨의학과", "안과", "이비인후과", "피부과",
	"정신건강의학과", "재활의학과", "가정의학과", "치과", "영상의학과", "응급의학과", "마취통증의학과",
}

var departmentAliases = map[string]string{
	"소아과":  "소아청소년과",
	"비뇨기과": "비뇨의학과",
	"정신과":  "정신건강의학과",
	"신경정신과": "정신건강의학과",
	"통증의학과": "마취통증의학과",
}

var symptomDepartments = []struct {
	department string
	cues       []string
}{
	{"내과", []string{"배가 아", "배 아파", "복통", "소화가", "속이 쓰", "설사", "구토", "감기", "몸살", "열이 나", "기침"}},
	{"정형외과", []string{"허리", "무릎", "어깨", "관절", "골절", "삐었", "발목", "손목"}},
	{"신경과", []string{"두통", "머리가 아", "어지러", "손발 저림"}},
	{"피부과", []string{"여드름", "두드러기", "가려움", "습진", "아토피", "피부가"}},
	{"안과", []string{"눈이 아", "시력", "충혈", "눈이 침침"}},
	{"이비인후과", []string{"귀가 아", "콧물", "비염", "편도", "목이 아", "코막힘"}},
	{"치과", []string{"치아", "이가 아", "잇몸", "충치", "사랑니"}},
	{"정신건강의학과", []string{"불면", "우울", "공황", "스트레스"}},
	{"비뇨의학과", []string{"소변", "방광", "전립선"}},
	{"산부인과", []string{"임신", "생리통", "월경"}},
}

// ExtractDepartment returns the department named in text. The earliest
// match wins and, at the same offset, the longest name wins, so 정형외과 is
// never reported as 외과.
func ExtractDepartment(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	bestPos, bestLen := -1, 0
	best := ""
	consider := func(name, canonical string) {
		offset := 0
		for {
			idx := strings.Index(text[offset:], name)
			if idx < 0 {
				return
			}
			pos := offset + idx
			offset = pos + len(name)
			if !atWordStart(text, pos) {
				continue
			}
			if bestPos == -1 || pos < bestPos || (pos == bestPos && len(name) > bestLen) {
				bestPos, bestLen, best = pos, len(name), canonical
			}
			return
		}
	}
	for _, dept := range Departments {
		consider(dept, dept)
	}
	for alias, canonical := range departmentAliases {
		consider(alias, canonical)
	}
	return best
}

// IsDepartment reports whether name is a known department or alias.
func IsDepartment(name string) bool {
	name = strings.TrimSpace(name)
	if _, ok := departmentAliases[name]; ok {
		return true
	}
	for _, dept := range Departments {
		if dept == name {
			return true
		}
	}
	return false
}

// MatchSymptomDepartment maps a described symptom to the department that
// usually treats it.
func MatchSymptomDepartment(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	for _, entry := range symptomDepartments {
		for _, cue := range entry.cues {
			if strings.Contains(text, cue) {
				return entry.department
			}
		}
	}
	return ""
}

// atWordStart rejects matches glued to a preceding Hangul syllable, e.g. the
// 안과 inside 불안과.
func atWordStart(text string, pos int) bool {
	if pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:pos])
	return !isHangul(r)
}

func isHangul(r rune) bool {
	return r >= '가' && r <= '힣'
}
