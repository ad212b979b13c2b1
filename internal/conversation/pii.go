package conversation

import "regexp"

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`(?:\+82[-.\s]?|0)1[016789][-.\s]?[0-9]{3,4}[-.\s]?[0-9]{4}`)
)

// ScrubPII replaces emails with [EMAIL] and mobile numbers with [PHONE].
// Clinic landlines such as 1577-3330 are kept.
func ScrubPII(text string) string {
	text = emailRe.ReplaceAllString(text, "[EMAIL]")
	return phoneRe.ReplaceAllString(text, "[PHONE]")
}
