package intents

import "strings"

// PromptState classifies the previous assistant reply.
type PromptState int

const (
	PromptNone PromptState = iota
	PromptWaitDepartment
	PromptMultiDate
	PromptDoctorChange
	PromptDoctorSelect
	PromptReservationSummary
)

func (s PromptState) String() string {
	switch s {
	case PromptWaitDepartment:
		return "wait_department"
	case PromptMultiDate:
		return "multi_date"
	case PromptDoctorChange:
		return "doctor_change"
	case PromptDoctorSelect:
		return "doctor_select"
	case PromptReservationSummary:
		return "reservation_summary"
	default:
		return "none"
	}
}

// TextClassifier detects intents in user text and prompt states in assistant
// text. Implementations must be pure.
type TextClassifier interface {
	HasBookingIntent(text string) bool
	HasRescheduleCue(text string) bool
	HasCancelCue(text string) bool
	HasBulkCancelCue(text string) bool
	HasDoctorChangeCue(text string) bool
	IsNegativeReply(text string) bool
	IsAffirmative(text string) bool
	MentionsReservationHistory(text string) bool
	HasTimeKeepCue(text string) bool
	HasWaitStatusCue(text string) bool
	IsLoginGuarded(text string) bool

	OffersChange(botText string) bool
	IsBookingPrompt(botText string) bool
	IsPastDatePrompt(botText string) bool
	PromptState(botText string) PromptState
}

// LexiconClassifier implements TextClassifier with substring cues.
type LexiconClassifier struct {
	lex Lexicon
}

// NewLexiconClassifier builds a classifier over lex.
func NewLexiconClassifier(lex Lexicon) *LexiconClassifier {
	return &LexiconClassifier{lex: lex}
}

// Default returns a classifier over DefaultLexicon.
func Default() *LexiconClassifier {
	return NewLexiconClassifier(DefaultLexicon())
}

func (c *LexiconClassifier) HasBookingIntent(text string) bool {
	return containsAny(text, c.lex.BookingCues) && !c.HasCancelCue(text)
}

func (c *LexiconClassifier) HasRescheduleCue(text string) bool {
	return containsAny(text, c.lex.RescheduleCues)
}

func (c *LexiconClassifier) HasCancelCue(text string) bool {
	return containsAny(text, c.lex.CancelCues)
}

// HasBulkCancelCue only fires together with a cancel cue.
func (c *LexiconClassifier) HasBulkCancelCue(text string) bool {
	return c.HasCancelCue(text) && containsAny(text, c.lex.BulkCancelCues)
}

// HasDoctorChangeCue needs both a doctor word and a change word.
func (c *LexiconClassifier) HasDoctorChangeCue(text string) bool {
	return containsAny(text, c.lex.DoctorWords) && containsAny(text, c.lex.ChangeWords)
}

func (c *LexiconClassifier) IsNegativeReply(text string) bool {
	return containsAny(text, c.lex.NegativeCues)
}

// IsAffirmative looks only at the first word so that 예 never matches 예약.
func (c *LexiconClassifier) IsAffirmative(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	first := strings.Trim(fields[0], ".,!?~")
	if strings.HasPrefix(first, "예약") || c.IsNegativeReply(first) {
		return false
	}
	for _, cue := range c.lex.AffirmativeCues {
		if strings.HasPrefix(first, cue) {
			return true
		}
	}
	return false
}

func (c *LexiconClassifier) MentionsReservationHistory(text string) bool {
	return containsAny(text, c.lex.HistoryCues)
}

func (c *LexiconClassifier) HasTimeKeepCue(text string) bool {
	return containsAny(text, c.lex.TimeKeepCues)
}

func (c *LexiconClassifier) HasWaitStatusCue(text string) bool {
	return containsAny(text, c.lex.WaitCues)
}

func (c *LexiconClassifier) IsLoginGuarded(text string) bool {
	return containsAny(text, c.lex.LoginGuardCues)
}

func (c *LexiconClassifier) OffersChange(botText string) bool {
	return containsAny(botText, c.lex.ChangeOfferCues)
}

func (c *LexiconClassifier) IsBookingPrompt(botText string) bool {
	return containsAny(botText, c.lex.BookingPrompts)
}

func (c *LexiconClassifier) IsPastDatePrompt(botText string) bool {
	return containsAny(botText, c.lex.PastDatePrompts)
}

// PromptState checks prompts in a fixed order because their texts share
// vocabulary: a doctor-change prompt also mentions 의료진.
func (c *LexiconClassifier) PromptState(botText string) PromptState {
	switch {
	case strings.TrimSpace(botText) == "":
		return PromptNone
	case containsAny(botText, c.lex.WaitDeptPrompts):
		return PromptWaitDepartment
	case containsAny(botText, c.lex.MultiDatePrompts):
		return PromptMultiDate
	case containsAny(botText, c.lex.DoctorChange):
		return PromptDoctorChange
	case containsAny(botText, c.lex.DoctorSelect):
		return PromptDoctorSelect
	case containsAny(botText, c.lex.SummaryPrompts):
		return PromptReservationSummary
	default:
		return PromptNone
	}
}

func containsAny(text string, cues []string) bool {
	if text == "" {
		return false
	}
	text = strings.Join(strings.Fields(text), " ")
	for _, cue := range cues {
		if cue != "" && strings.Contains(text, cue) {
			return true
		}
	}
	return false
}
