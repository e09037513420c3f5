// Package calendar lays out calendar events for day, week and month views.
//
// Every operation is a pure function of its inputs: the engine keeps no
// state between calls apart from read-only configuration and a cache of
// resolved zones, so one Engine can serve concurrent renders.
package calendar

import "errors"

// ErrEventNotInScope is returned when a caller asks for the position of an
// event that is not active in the requested scope.
var ErrEventNotInScope = errors.New("event not found in scope")

type Engine struct {
	opts     Options
	reporter Reporter
	zones    *zoneCache
}

// NewEngine returns an engine using opts (see Options for defaults). A nil
// reporter discards diagnostics.
func NewEngine(opts Options, reporter Reporter) *Engine {
	if reporter == nil {
		reporter = discardReporter{}
	}
	return &Engine{
		opts:     opts.normalized(),
		reporter: reporter,
		zones:    sharedZones,
	}
}

func (e *Engine) Options() Options { return e.opts }

var defaultEngine = NewEngine(DefaultOptions(), nil)

// EventsActiveOn reports the events touching date using default options.
func EventsActiveOn(date Date, events []EventInterval, defaultZone string) []EventInterval {
	return defaultEngine.EventsActiveOn(date, events, defaultZone)
}

// LayoutDay lays out the hour grid for date using default options.
func LayoutDay(date Date, events []EventInterval, defaultZone string) []Tile {
	return defaultEngine.LayoutDay(date, events, defaultZone)
}

// LayoutWeekSegment computes the week bar of event anchored at date using
// default options.
func LayoutWeekSegment(date Date, event EventInterval, defaultZone string, weekStart, weekEnd Date) (Segment, bool) {
	return defaultEngine.LayoutWeekSegment(date, event, defaultZone, weekStart, weekEnd)
}
