package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDialogueMetricsObserve(t *testing.T) {
	m := NewDialogueMetrics(prometheus.NewRegistry())
	m.ObserveBranch("doctor_select", "tool")
	m.ObserveBranch("doctor_select", "tool")
	m.ObserveTool("reservation_create", "ok")
	m.ObserveTurn("resolver", true, 0.2)
	m.ObserveHistory("cache")

	if got := testutil.ToFloat64(m.branchTotal.WithLabelValues("doctor_select", "tool")); got != 2 {
		t.Fatalf("expected 2 branch observations, got %v", got)
	}
	if got := testutil.ToFloat64(m.toolTotal.WithLabelValues("reservation_create", "ok")); got != 1 {
		t.Fatalf("expected 1 tool observation, got %v", got)
	}
	if got := testutil.ToFloat64(m.turnTotal.WithLabelValues("resolver", "true")); got != 1 {
		t.Fatalf("expected 1 turn observation, got %v", got)
	}
}

func TestDialogueMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDialogueMetrics(reg)
	m.ObserveHistory("archive")
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected registered metric families")
	}
}

func TestDialogueMetricsNilSafe(t *testing.T) {
	var m *DialogueMetrics
	m.ObserveBranch("none", "decline")
	m.ObserveTool("reservation_history", "error")
	m.ObserveTurn("fallback", false, 0.1)
	m.ObserveHistory("error")
}
