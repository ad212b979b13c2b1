package conversation

import (
	"sort"
	"strings"
	"time"

	"github.com/wolfman30/reservation-dialogue/internal/slots"
)

// departmentFrom prefers a department named in text over the one carried in
// metadata.
func departmentFrom(text string, md map[string]string) string {
	if dept := slots.ExtractDepartment(text); dept != "" {
		return dept
	}
	return metadataDepartment(md)
}

func metadataDepartment(md map[string]string) string {
	for _, key := range []string{"department", "dept"} {
		if dept := slots.ExtractDepartment(strings.TrimSpace(md[key])); dept != "" {
			return dept
		}
	}
	return ""
}

// doctorFrom prefers a doctor named in text over the selection carried in
// metadata.
func doctorFrom(text string, md map[string]string) string {
	if name := slots.ExtractDoctorName(text); name != "" {
		return name
	}
	return metadataDoctor(md)
}

func metadataDoctor(md map[string]string) string {
	for _, key := range []string{"doctor_name", "doctor"} {
		if name := strings.TrimSpace(md[key]); name != "" {
			return name
		}
	}
	return ""
}

func recentDepartment(turns []Turn) string {
	for _, turn := range turns {
		if dept := slots.ExtractDepartment(turn.UserText); dept != "" {
			return dept
		}
		if dept := slots.ExtractDepartment(turn.BotText); dept != "" {
			return dept
		}
	}
	return ""
}

// recentDepartmentOrSymptom also maps described symptoms to a department.
func recentDepartmentOrSymptom(texts []string) string {
	for _, text := range texts {
		if dept := slots.ExtractDepartment(text); dept != "" {
			return dept
		}
		if dept := slots.MatchSymptomDepartment(text); dept != "" {
			return dept
		}
	}
	return ""
}

func recentDoctor(turns []Turn) string {
	for _, turn := range turns {
		if name := slots.ExtractDoctorName(turn.UserText); name != "" {
			return name
		}
		if name := slots.ExtractDoctorName(turn.BotText); name != "" {
			return name
		}
	}
	for _, turn := range turns {
		if name := metadataDoctor(turn.Metadata); name != "" {
			return name
		}
	}
	return ""
}

func userTexts(turns []Turn) []string {
	out := make([]string, 0, len(turns))
	for _, turn := range turns {
		out = append(out, turn.UserText)
	}
	return out
}

func firstTimePhrase(texts []string) (string, bool) {
	asap := false
	for _, text := range texts {
		asap = asap || slots.ContainsASAP(text)
		if tod := slots.ExtractTimePhrase(text); tod != "" {
			return tod, asap
		}
	}
	return "", asap
}

func firstDatePhrase(texts []string, now time.Time) string {
	for _, text := range texts {
		if date := slots.ExtractDatePhrase(text, now); date != "" {
			return date
		}
	}
	return ""
}

// dayCandidates collects the distinct days of month mentioned in texts.
func dayCandidates(texts []string, extra ...int) []int {
	seen := map[int]struct{}{}
	var out []int
	add := func(day int) {
		if day <= 0 {
			return
		}
		if _, ok := seen[day]; ok {
			return
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	for _, text := range texts {
		for _, day := range slots.ExtractDayOnlyList(text) {
			add(day)
		}
	}
	for _, day := range extra {
		add(day)
	}
	sort.Ints(out)
	return out
}

// resolveDayHint turns a bare day of month into a date phrase, anchored on
// dateHint when it names a date and on today otherwise.
func resolveDayHint(day int, dateHint string, now time.Time) string {
	base := now
	if d, ok := slots.ParseDateOnly(dateHint, now); ok {
		base = d
	}
	if d, ok := slots.ResolveDay(base, day); ok {
		return slots.FormatDate(d)
	}
	return dateHint
}

// slotFillingRun returns the user texts of the turns that belong to the
// current booking exchange: the newest turns whose replies asked for
// booking details.
func slotFillingRun(turns []Turn, isPrompt func(string) bool) []string {
	var out []string
	for _, turn := range turns {
		if !isPrompt(turn.BotText) {
			break
		}
		out = append(out, turn.UserText)
	}
	return out
}
