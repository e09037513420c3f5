// Package metrics exposes Prometheus collectors for layout activity.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/unihub/eventgrid/internal/calendar"
)

const (
	namespace = "eventgrid"
	subsystem = "layout"
)

// Metrics counts layout calls and the input repairs the engine performed.
// It implements calendar.Reporter.
type Metrics struct {
	reg       prometheus.Gatherer
	calls     *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

var (
	defaultOnce sync.Once
	shared      *Metrics
)

// Default returns a process-wide instance backed by its own registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		shared = MustNewMetrics(prometheus.NewRegistry())
	})
	return shared
}

// MustNewMetrics registers the collectors with reg, reusing collectors that
// are already registered under the same names. Other registration errors
// panic, as promauto does.
func MustNewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	calls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "calls_total",
			Help:      "Layout operations served, by operation.",
		},
		[]string{"op"},
	)
	fallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fallbacks_total",
			Help:      "Events laid out after repairing bad input, by kind.",
		},
		[]string{"kind"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "duration_seconds",
			Help:      "Time spent computing a layout.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"op"},
	)

	for _, collector := range []prometheus.Collector{calls, fallbacks, duration} {
		if err := reg.Register(collector); err != nil {
			already, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				panic(err)
			}
			switch collector {
			case calls:
				calls = already.ExistingCollector.(*prometheus.CounterVec)
			case fallbacks:
				fallbacks = already.ExistingCollector.(*prometheus.CounterVec)
			case duration:
				duration = already.ExistingCollector.(*prometheus.HistogramVec)
			}
		}
	}

	return &Metrics{reg: reg, calls: calls, fallbacks: fallbacks, duration: duration}
}

// Report counts a repaired input by kind.
func (m *Metrics) Report(issue calendar.Issue) {
	if m == nil || m.fallbacks == nil {
		return
	}
	m.fallbacks.WithLabelValues(string(issue.Kind)).Inc()
}

// ObserveCall records one layout operation and how long it took.
func (m *Metrics) ObserveCall(op string, elapsed time.Duration) {
	if m == nil || m.calls == nil {
		return
	}
	m.calls.WithLabelValues(op).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Track starts timing op; call the returned func when the layout is done.
func (m *Metrics) Track(op string) func() {
	started := time.Now()
	return func() { m.ObserveCall(op, time.Since(started)) }
}

// Sample is one counter value read back from the registry.
type Sample struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

// Snapshot gathers every counter of this package, sorted by name and labels.
func (m *Metrics) Snapshot() ([]Sample, error) {
	if m == nil || m.reg == nil {
		return nil, nil
	}
	families, err := m.reg.Gather()
	if err != nil {
		return nil, err
	}
	out := make([]Sample, 0)
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, metric := range mf.GetMetric() {
			out = append(out, Sample{
				Name:   mf.GetName(),
				Labels: labelMap(metric.GetLabel()),
				Value:  metric.GetCounter().GetValue(),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return labelKey(out[i].Labels) < labelKey(out[j].Labels)
	})
	return out, nil
}

// FallbackCounts returns the fallback counter per kind.
func (m *Metrics) FallbackCounts() (map[string]float64, error) {
	samples, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	out := map[string]float64{}
	for _, s := range samples {
		if s.Name == namespace+"_"+subsystem+"_fallbacks_total" {
			out[s.Labels["kind"]] = s.Value
		}
	}
	return out, nil
}

func labelMap(pairs []*dto.LabelPair) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	out := make(map[string]string, len(pairs))
	for _, lp := range pairs {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

func labelKey(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	key := ""
	for _, k := range keys {
		key += k + "=" + labels[k] + ","
	}
	return key
}
