// Package tools is the boundary the dialogue resolver calls for every lookup or
// reservation change.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Tool names understood by the registry.
const (
	ReservationHistory    = "reservation_history"
	WaitStatus            = "wait_status"
	DoctorList            = "doctor_list"
	ReservationCreate     = "reservation_create"
	ReservationReschedule = "reservation_reschedule"
	ReservationCancel     = "reservation_cancel"
)

// ErrUnknownTool is returned for names with no registered handler.
var ErrUnknownTool = errors.New("tools: unknown tool")

// Status summarises a tool outcome.
type Status string

const (
	StatusOK       Status = "ok"
	StatusNotFound Status = "not_found"
	StatusError    Status = "error"
)

// Table is structured output passed through to the caller verbatim.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Result is what a tool hands back. A non-empty ReplyText takes precedence over
// any reply the caller would template from Status.
type Result struct {
	ReplyText string `json:"reply_text,omitempty"`
	Status    Status `json:"status"`
	Table     *Table `json:"table,omitempty"`
}

// Context identifies who a tool call is made for.
type Context struct {
	SessionID string
	Metadata  map[string]string
	RequestID string
	UserID    string
}

// Args are the named tool arguments.
type Args map[string]any

// String returns the trimmed string value of key.
func (a Args) String(key string) string {
	switch v := a[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Bool reports whether key is set to a truthy value.
func (a Args) Bool(key string) bool {
	switch v := a[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y":
			return true
		}
	}
	return false
}

// Executor runs a named tool.
type Executor interface {
	Execute(ctx context.Context, name string, args Args, tc Context) (Result, error)
}

// Handler implements one tool.
type Handler func(ctx context.Context, args Args, tc Context) (Result, error)
