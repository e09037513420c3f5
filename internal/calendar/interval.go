package calendar

import (
	"fmt"
	"strings"
	"time"
)

// EventInterval is the unit the layout engine works on. Start and End are
// absolute instants; Zone is the IANA zone whose wall clock decides which
// calendar days the event touches.
type EventInterval struct {
	ID          string    `json:"id" yaml:"id"`
	DisplayName string    `json:"display_name" yaml:"display_name"`
	Start       time.Time `json:"start" yaml:"start"`
	End         time.Time `json:"end" yaml:"end"`
	Zone        string    `json:"zone,omitempty" yaml:"zone,omitempty"`
}

// span is an EventInterval projected into its zone. index is the position in
// the caller's input and breaks ties deterministically.
type span struct {
	ev        EventInterval
	index     int
	start     time.Time
	end       time.Time
	startDate Date
	endDate   Date
}

func (s span) multiDay() bool { return s.startDate != s.endDate }

func (s span) activeOn(d Date) bool {
	return !d.Before(s.startDate) && !d.After(s.endDate)
}

// localize projects every event into its zone. Bad input is repaired and
// reported, never dropped.
func (e *Engine) localize(events []EventInterval, defaultZone string) []span {
	out := make([]span, 0, len(events))
	for i, ev := range events {
		out = append(out, e.localizeOne(ev, defaultZone, i))
	}
	return out
}

func (e *Engine) localizeOne(ev EventInterval, defaultZone string, index int) span {
	start, end := ev.Start, ev.End
	switch {
	case start.IsZero() && end.IsZero():
		e.report(ev.ID, IssueMissingInstant, "start and end are both unset")
	case start.IsZero():
		e.report(ev.ID, IssueMissingInstant, "start is unset; using end as a zero-length event")
		start = end
	case end.IsZero():
		e.report(ev.ID, IssueMissingInstant, "end is unset; using start as a zero-length event")
		end = start
	case end.Before(start):
		e.report(ev.ID, IssueInvertedInterval, fmt.Sprintf("end %s precedes start %s", end.Format(time.RFC3339), start.Format(time.RFC3339)))
		end = start
	}

	zone := strings.TrimSpace(ev.Zone)
	if zone == "" {
		zone = strings.TrimSpace(defaultZone)
	}
	loc, err := e.zones.load(zone)
	if err != nil || loc == nil {
		e.report(ev.ID, IssueZoneFallback, fmt.Sprintf("unknown zone %q; interpreting in UTC", zone))
		loc = time.UTC
	}

	start = start.In(loc)
	end = end.In(loc)
	return span{
		ev:        ev,
		index:     index,
		start:     start,
		end:       end,
		startDate: DateOf(start),
		endDate:   DateOf(end),
	}
}

func (e *Engine) report(id string, kind IssueKind, detail string) {
	e.reporter.Report(Issue{EventID: id, Kind: kind, Detail: detail})
}
