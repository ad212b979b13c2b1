package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wolfman30/reservation-dialogue/internal/tools"
)

var seoul = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}()

// Monday 2026-10-19 10:00 KST.
var testNow = time.Date(2026, 10, 19, 10, 0, 0, 0, seoul)

type toolCall struct {
	Name string
	Args tools.Args
	TC   tools.Context
}

// recordingExecutor answers every tool with a canned result and remembers the
// calls it received.
type recordingExecutor struct {
	mu      sync.Mutex
	calls   []toolCall
	results map[string]tools.Result
	err     error
}

func newRecordingExecutor() *recordingExecutor {
	return &recordingExecutor{results: map[string]tools.Result{}}
}

func (e *recordingExecutor) Execute(ctx context.Context, name string, args tools.Args, tc tools.Context) (tools.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, toolCall{Name: name, Args: args, TC: tc})
	if e.err != nil {
		return tools.Result{}, e.err
	}
	if res, ok := e.results[name]; ok {
		return res, nil
	}
	return tools.Result{Status: tools.StatusOK}, nil
}

func (e *recordingExecutor) Calls() []toolCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]toolCall(nil), e.calls...)
}

// memoryHistory keeps turns per session, newest first.
type memoryHistory struct {
	mu      sync.Mutex
	turns   map[string][]Turn
	readErr error
	err     error
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{turns: map[string][]Turn{}}
}

func (h *memoryHistory) Append(ctx context.Context, turn Turn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.turns[turn.SessionID] = append([]Turn{turn}, h.turns[turn.SessionID]...)
	return nil
}

func (h *memoryHistory) RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.readErr != nil {
		return nil, h.readErr
	}
	turns := h.turns[sessionID]
	if limit > 0 && len(turns) > limit {
		turns = turns[:limit]
	}
	return append([]Turn(nil), turns...), nil
}

var errStoreDown = errors.New("store down")

// closedWeekdays closes the facility on the listed weekdays.
type closedWeekdays map[time.Weekday]bool

func (c closedWeekdays) IsClosedOn(day time.Time) bool {
	return c[day.Weekday()]
}
