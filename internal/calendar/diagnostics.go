package calendar

import "sync"

// IssueKind classifies a recoverable input problem. The event is still laid
// out, possibly mis-positioned.
type IssueKind string

const (
	IssueZoneFallback     IssueKind = "zone_fallback"
	IssueInvertedInterval IssueKind = "inverted_interval"
	IssueMissingInstant   IssueKind = "missing_instant"
)

type Issue struct {
	EventID string    `json:"event_id"`
	Kind    IssueKind `json:"kind"`
	Detail  string    `json:"detail"`
}

// Reporter receives diagnostics while events are resolved. Implementations
// must be safe for concurrent use.
type Reporter interface {
	Report(Issue)
}

type ReporterFunc func(Issue)

func (f ReporterFunc) Report(i Issue) { f(i) }

type multiReporter []Reporter

func (m multiReporter) Report(i Issue) {
	for _, r := range m {
		r.Report(i)
	}
}

// MultiReporter fans an issue out to every non-nil reporter.
func MultiReporter(rs ...Reporter) Reporter {
	out := make(multiReporter, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

type onceReporter struct {
	mu   sync.Mutex
	seen map[Issue]struct{}
	next Reporter
}

func (o *onceReporter) Report(i Issue) {
	o.mu.Lock()
	_, dup := o.seen[i]
	if !dup {
		o.seen[i] = struct{}{}
	}
	o.mu.Unlock()
	if !dup {
		o.next.Report(i)
	}
}

// OnceReporter forwards each distinct issue to r once, however many
// operations resolve the same event.
func OnceReporter(r Reporter) Reporter {
	if r == nil {
		r = discardReporter{}
	}
	return &onceReporter{seen: map[Issue]struct{}{}, next: r}
}

// Collector keeps every reported issue in memory.
type Collector struct {
	mu     sync.Mutex
	issues []Issue
}

func (c *Collector) Report(i Issue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issues = append(c.issues, i)
}

func (c *Collector) Issues() []Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Issue, len(c.issues))
	copy(out, c.issues)
	return out
}

func (c *Collector) Count(kind IssueKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, i := range c.issues {
		if i.Kind == kind {
			n++
		}
	}
	return n
}

type discardReporter struct{}

func (discardReporter) Report(Issue) {}
