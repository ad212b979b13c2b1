package conversation

import (
	"context"
	"strings"

	"github.com/wolfman30/reservation-dialogue/pkg/logging"
)

// DefaultHistoryWindow is how many turns the loader scans for carried context.
const DefaultHistoryWindow = 10

// ContextLoader enriches request metadata with context recovered from the
// session's recent turns.
type ContextLoader struct {
	history HistoryReader
	window  int
	logger  *logging.Logger
}

// NewContextLoader creates a loader. history may be nil.
func NewContextLoader(history HistoryReader, window int, logger *logging.Logger) *ContextLoader {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ContextLoader{history: history, window: window, logger: logger}
}

// Session is what the loader recovered for one request.
type Session struct {
	Metadata      map[string]string
	Authenticated bool
	// UserID is the identity the auth middleware vouched for, read before
	// history is merged in.
	UserID string
	// Turns are the recent turns, newest first.
	Turns []Turn
}

// Load returns the enriched metadata and whether the request is
// authenticated. md must already be sanitized and carry only identity the
// auth middleware vouched for. Store failures leave md unchanged.
func (l *ContextLoader) Load(ctx context.Context, sessionID string, md map[string]string) (map[string]string, bool) {
	s := l.LoadSession(ctx, sessionID, md)
	return s.Metadata, s.Authenticated
}

// LoadSession is Load that also hands back the turns it read.
func (l *ContextLoader) LoadSession(ctx context.Context, sessionID string, md map[string]string) Session {
	s := Session{Authenticated: HasAuth(md), UserID: VouchedUserID(md)}
	if sessionID == "" || l.history == nil {
		s.Metadata = cloneMetadata(md)
		return s
	}
	turns, err := l.history.RecentTurns(ctx, sessionID, l.window)
	if err != nil {
		l.logger.Warn("context recovery skipped", "session_id", sessionID, "error", err)
		s.Metadata = cloneMetadata(md)
		return s
	}
	s.Turns = turns
	s.Metadata = MergeContext(md, turns, s.Authenticated)
	return s
}

// MergeContext copies context keys missing from md out of turns, newest turn
// first. Auth keys are only copied for an authenticated request, so history
// can never authenticate a session on its own, and only from turns recorded
// under the same identity as the request.
func MergeContext(md map[string]string, turns []Turn, authenticated bool) map[string]string {
	out := cloneMetadata(md)
	for _, turn := range turns {
		sameUser := authenticated && sameIdentity(md, turn.Metadata)
		for _, key := range ContextKeys {
			if _, ok := out[key]; ok {
				continue
			}
			value := strings.TrimSpace(turn.Metadata[key])
			if value == "" {
				continue
			}
			if isAuthKey(key) && !sameUser {
				continue
			}
			out[key] = value
		}
	}
	return out
}

// sameIdentity reports whether recorded was written for the identity in md:
// at least one auth key both carry agrees and none disagrees.
func sameIdentity(md, recorded map[string]string) bool {
	shared := 0
	for _, key := range AuthKeys {
		want := strings.TrimSpace(md[key])
		got := strings.TrimSpace(recorded[key])
		if want == "" || got == "" {
			continue
		}
		if want != got {
			return false
		}
		shared++
	}
	return shared > 0
}

// VouchedUserID picks the acting user out of middleware supplied metadata.
func VouchedUserID(md map[string]string) string {
	for _, key := range userIDKeys {
		if id := strings.TrimSpace(md[key]); id != "" {
			return id
		}
	}
	return ""
}

var userIDKeys = []string{"user_id", "patient_id", "patientId", "account_id", "auth_user_id"}
