package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()
	if m == nil || m.handler == nil || m.registry == nil {
		t.Fatal("NewMetrics returned an incomplete value")
	}
	// A second instance must not panic on duplicate registration.
	_ = NewMetrics()
}

func TestObserveCall(t *testing.T) {
	m := NewMetrics()
	m.ObserveCall("fib", nil)
	m.ObserveCall("fib", nil)
	m.ObserveCall("fib", errors.New("bad argument"))
	m.ObserveCall("nop", nil)

	if got := testutil.ToFloat64(m.calls.WithLabelValues("fib", OutcomeOK)); got != 2 {
		t.Errorf("fib ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.calls.WithLabelValues("fib", OutcomeError)); got != 1 {
		t.Errorf("fib error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.calls.WithLabelValues("nop", OutcomeOK)); got != 1 {
		t.Errorf("nop ok = %v, want 1", got)
	}
}

func TestObserveTransitionAndWarnings(t *testing.T) {
	m := NewMetrics()
	m.ObserveTransition("enable", nil)
	m.ObserveTransition("disable", errors.New("busy"))
	m.ObserveTeardownWarning()
	m.ObserveTeardownWarning()

	if got := testutil.ToFloat64(m.transitions.WithLabelValues("enable", OutcomeOK)); got != 1 {
		t.Errorf("enable ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("disable", OutcomeError)); got != 1 {
		t.Errorf("disable error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.warnings); got != 2 {
		t.Errorf("warnings = %v, want 2", got)
	}
}

func TestSetState(t *testing.T) {
	m := NewMetrics()
	m.SetState("installed")
	m.SetState("active")

	if got := testutil.CollectAndCount(m.state); got != 1 {
		t.Errorf("only the current state should be exported, got %d series", got)
	}
	if got := testutil.ToFloat64(m.state.WithLabelValues("active")); got != 1 {
		t.Errorf("active = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.ObserveCall("fib", nil)
	m.ObserveTransition("enable", nil)
	m.SetState("active")

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"calcpatch_substitute_calls_total",
		"calcpatch_lifecycle_transitions_total",
		`calcpatch_patch_state{state="active"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output should contain %q", want)
		}
	}
}

func TestRegisterHost(t *testing.T) {
	m := NewMetrics()
	var samples atomic.Int32
	sample := func() (float64, float64) {
		samples.Add(1)
		return 12.5, 40
	}
	if err := m.RegisterHost(sample); err != nil {
		t.Fatalf("RegisterHost() = %v", err)
	}
	if err := m.RegisterHost(func() (float64, float64) { return 0, 0 }); err == nil {
		t.Error("second RegisterHost should fail on duplicate collectors")
	}

	expected := `
# HELP calcpatch_host_cpu_percent System-wide CPU usage in percent.
# TYPE calcpatch_host_cpu_percent gauge
calcpatch_host_cpu_percent 12.5
# HELP calcpatch_host_memory_percent System-wide memory usage in percent.
# TYPE calcpatch_host_memory_percent gauge
calcpatch_host_memory_percent 40
`
	if err := testutil.GatherAndCompare(m.registry, strings.NewReader(expected),
		"calcpatch_host_cpu_percent", "calcpatch_host_memory_percent"); err != nil {
		t.Error(err)
	}
	if got := samples.Load(); got != 1 {
		t.Errorf("one scrape sampled the host %d times, want 1", got)
	}
}
