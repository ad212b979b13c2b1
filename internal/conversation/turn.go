// Package conversation resolves patient utterances against the recent turns of
// a chat session and persists those turns.
package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Turn is one exchange in a chat session. Turns are written once and never
// updated.
type Turn struct {
	SessionID string            `json:"session_id"`
	RequestID string            `json:"request_id,omitempty"`
	UserText  string            `json:"user_text"`
	BotText   string            `json:"bot_text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// HistoryReader returns the most recent turns of a session, newest first.
type HistoryReader interface {
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error)
}

// TurnWriter appends a finished turn.
type TurnWriter interface {
	Append(ctx context.Context, turn Turn) error
}

// HistoryStore reads and writes turns.
type HistoryStore interface {
	HistoryReader
	TurnWriter
}

// AuthKeys identify an authenticated patient. They are only trusted when the
// auth middleware put them into the request.
var AuthKeys = []string{
	"patient_id",
	"patient_identifier",
	"patient_phone",
	"account_id",
	"patient_pk",
	"auth_user_id",
	"user_id",
}

// BlockedKeys are stripped from client supplied metadata.
var BlockedKeys = append(append([]string{}, AuthKeys...), "patientId", "verified_user")

// ContextKeys are carried forward from earlier turns of the same session.
var ContextKeys = append(append([]string{}, AuthKeys...),
	"doctor_name", "doctor_id", "doctor", "doctorId", "doctor_code",
	"department", "dept",
)

// MetadataRequestID is the metadata key holding the correlation id.
const MetadataRequestID = "request_id"

// SanitizeMetadata flattens client metadata into strings and drops every
// auth-shaped key. Nested values are ignored.
func SanitizeMetadata(raw map[string]any) map[string]string {
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		if isBlockedKey(key) {
			continue
		}
		var s string
		switch v := value.(type) {
		case string:
			s = strings.TrimSpace(v)
		case bool:
			s = strconv.FormatBool(v)
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			s = strconv.Itoa(v)
		case fmt.Stringer:
			s = strings.TrimSpace(v.String())
		default:
			continue
		}
		if s != "" {
			out[key] = s
		}
	}
	return out
}

// HasAuth reports whether any auth key carries a value.
func HasAuth(md map[string]string) bool {
	for _, key := range AuthKeys {
		if strings.TrimSpace(md[key]) != "" {
			return true
		}
	}
	return false
}

func isBlockedKey(key string) bool {
	for _, blocked := range BlockedKeys {
		if key == blocked {
			return true
		}
	}
	return false
}

func isAuthKey(key string) bool {
	for _, k := range AuthKeys {
		if key == k {
			return true
		}
	}
	return false
}

func cloneMetadata(md map[string]string) map[string]string {
	out := make(map[string]string, len(md)+1)
	for k, v := range md {
		out[k] = v
	}
	return out
}
