package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/wolfman30/reservation-dialogue/internal/observability/metrics"
	"github.com/wolfman30/reservation-dialogue/pkg/logging"
)

// Registry maps tool names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   *logging.Logger
	metrics  *metrics.DialogueMetrics
}

// NewRegistry creates an empty registry. metrics may be nil.
func NewRegistry(logger *logging.Logger, m *metrics.DialogueMetrics) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		handlers: make(map[string]Handler),
		logger:   logger,
		metrics:  m,
	}
}

// Register adds or replaces the handler for name.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Names lists the registered tools.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the named tool once. Handler errors are returned alongside an
// error-status result.
func (r *Registry) Execute(ctx context.Context, name string, args Args, tc Context) (Result, error) {
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		r.metrics.ObserveTool(name, "unknown")
		return Result{Status: StatusError}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	res, err := h(ctx, args, tc)
	if err != nil {
		r.logger.Error("tool failed", "tool", name, "request_id", tc.RequestID, "session_id", tc.SessionID, "error", err)
		r.metrics.ObserveTool(name, string(StatusError))
		return Result{Status: StatusError}, fmt.Errorf("tools: %s: %w", name, err)
	}
	if res.Status == "" {
		res.Status = StatusOK
	}
	r.metrics.ObserveTool(name, string(res.Status))
	r.logger.Debug("tool executed", "tool", name, "status", res.Status, "request_id", tc.RequestID)
	return res, nil
}
