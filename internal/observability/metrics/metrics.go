package metrics

import "github.com/prometheus/client_golang/prometheus"

// DialogueMetrics exposes counters/histograms for the reservation dialogue.
type DialogueMetrics struct {
	branchTotal  *prometheus.CounterVec
	toolTotal    *prometheus.CounterVec
	turnTotal    *prometheus.CounterVec
	historyTotal *prometheus.CounterVec
	turnLatency  *prometheus.HistogramVec
}

func NewDialogueMetrics(reg prometheus.Registerer) *DialogueMetrics {
	m := &DialogueMetrics{
		branchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reservation",
			Subsystem: "dialogue",
			Name:      "branch_total",
			Help:      "Resolver decisions by branch",
		}, []string{"branch", "action"}),
		toolTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reservation",
			Subsystem: "dialogue",
			Name:      "tool_calls_total",
			Help:      "Reservation tool invocations by outcome",
		}, []string{"tool", "status"}),
		turnTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reservation",
			Subsystem: "dialogue",
			Name:      "turns_total",
			Help:      "Chat turns by responder",
		}, []string{"responder", "authenticated"}),
		historyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reservation",
			Subsystem: "dialogue",
			Name:      "history_loads_total",
			Help:      "Session history loads by source",
		}, []string{"source"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reservation",
			Subsystem: "dialogue",
			Name:      "turn_latency_seconds",
			Help:      "Latency of a chat turn",
			Buckets:   prometheus.DefBuckets,
		}, []string{"responder"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.branchTotal, m.toolTotal, m.turnTotal, m.historyTotal, m.turnLatency)
	return m
}

// ObserveBranch records which resolver branch produced the action.
func (m *DialogueMetrics) ObserveBranch(branch, action string) {
	if m == nil {
		return
	}
	m.branchTotal.WithLabelValues(branch, action).Inc()
}

func (m *DialogueMetrics) ObserveTool(tool, status string) {
	if m == nil {
		return
	}
	m.toolTotal.WithLabelValues(tool, status).Inc()
}

func (m *DialogueMetrics) ObserveTurn(responder string, authenticated bool, seconds float64) {
	if m == nil {
		return
	}
	label := "false"
	if authenticated {
		label = "true"
	}
	m.turnTotal.WithLabelValues(responder, label).Inc()
	m.turnLatency.WithLabelValues(responder).Observe(seconds)
}

// ObserveHistory records where session history came from: cache, archive, empty or error.
func (m *DialogueMetrics) ObserveHistory(source string) {
	if m == nil {
		return
	}
	m.historyTotal.WithLabelValues(source).Inc()
}
