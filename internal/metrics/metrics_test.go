package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/unihub/eventgrid/internal/calendar"
)

func TestReportCountsFallbacksByKind(t *testing.T) {
	m := MustNewMetrics(prometheus.NewRegistry())

	m.Report(calendar.Issue{EventID: "1", Kind: calendar.IssueZoneFallback})
	m.Report(calendar.Issue{EventID: "2", Kind: calendar.IssueZoneFallback})
	m.Report(calendar.Issue{EventID: "3", Kind: calendar.IssueInvertedInterval})

	if got := testutil.ToFloat64(m.fallbacks.WithLabelValues("zone_fallback")); got != 2 {
		t.Fatalf("expected 2 zone fallbacks, got %v", got)
	}
	counts, err := m.FallbackCounts()
	if err != nil {
		t.Fatalf("FallbackCounts error: %v", err)
	}
	if counts["inverted_interval"] != 1 || counts["zone_fallback"] != 2 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestEngineReportsThroughMetrics(t *testing.T) {
	m := MustNewMetrics(prometheus.NewRegistry())
	engine := calendar.NewEngine(calendar.DefaultOptions(), m)

	ev := calendar.EventInterval{
		ID:    "x",
		Start: time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC),
		Zone:  "Atlantis/Capital",
	}
	done := m.Track("day")
	engine.LayoutDay(calendar.NewDate(2026, time.February, 10), []calendar.EventInterval{ev}, "UTC")
	done()

	if got := testutil.ToFloat64(m.fallbacks.WithLabelValues("zone_fallback")); got != 1 {
		t.Fatalf("expected 1 zone fallback, got %v", got)
	}
	if got := testutil.ToFloat64(m.calls.WithLabelValues("day")); got != 1 {
		t.Fatalf("expected 1 day call, got %v", got)
	}
}

func TestMustNewMetricsReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := MustNewMetrics(reg)
	second := MustNewMetrics(reg)

	first.ObserveCall("month", time.Millisecond)
	second.ObserveCall("month", time.Millisecond)

	samples, err := second.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected one counter sample, got %+v", samples)
	}
	s := samples[0]
	if s.Name != "eventgrid_layout_calls_total" || s.Labels["op"] != "month" || s.Value != 2 {
		t.Fatalf("unexpected sample: %+v", s)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Report(calendar.Issue{Kind: calendar.IssueMissingInstant})
	m.ObserveCall("day", time.Second)
	if samples, err := m.Snapshot(); err != nil || samples != nil {
		t.Fatalf("expected empty snapshot, got %v %v", samples, err)
	}
}
