package calendar

import "sort"

// EventsActiveOn returns the events whose local [start, end] dates include
// date. Both ends are inclusive: an event ending at 00:05 on D is active on D.
// The result keeps input order; use SortForCell for display order.
func (e *Engine) EventsActiveOn(date Date, events []EventInterval, defaultZone string) []EventInterval {
	spans := activeSpans(date, e.localize(events, defaultZone))
	out := make([]EventInterval, 0, len(spans))
	for _, s := range spans {
		out = append(out, s.ev)
	}
	return out
}

// Partition splits the events active on date into single-day and multi-day
// events, each in input order.
func (e *Engine) Partition(date Date, events []EventInterval, defaultZone string) (single, multi []EventInterval) {
	single = make([]EventInterval, 0)
	multi = make([]EventInterval, 0)
	for _, s := range activeSpans(date, e.localize(events, defaultZone)) {
		if s.multiDay() {
			multi = append(multi, s.ev)
			continue
		}
		single = append(single, s.ev)
	}
	return single, multi
}

// SortForCell returns a copy of events ordered the way a calendar cell lists
// them: multi-day events first, then by start instant, then input order.
func (e *Engine) SortForCell(events []EventInterval, defaultZone string) []EventInterval {
	spans := e.localize(events, defaultZone)
	sortSpansForCell(spans)
	out := make([]EventInterval, 0, len(spans))
	for _, s := range spans {
		out = append(out, s.ev)
	}
	return out
}

// DayOccupancy is the resolver output for one date.
type DayOccupancy struct {
	Date Date `json:"date"`
	// Active keeps input order.
	Active []EventInterval `json:"active"`
	// Single keeps input order; Multi is in cell order.
	Single []EventInterval `json:"single"`
	Multi  []EventInterval `json:"multi"`
}

// Occupancy resolves events once and reports, for every date, the active
// events and their single-day and multi-day split.
func (e *Engine) Occupancy(dates []Date, events []EventInterval, defaultZone string) []DayOccupancy {
	spans := e.localize(events, defaultZone)
	out := make([]DayOccupancy, 0, len(dates))
	for _, date := range dates {
		day := DayOccupancy{
			Date:   date,
			Active: make([]EventInterval, 0),
			Single: make([]EventInterval, 0),
			Multi:  make([]EventInterval, 0),
		}
		active := activeSpans(date, spans)
		var multi []span
		for _, s := range active {
			day.Active = append(day.Active, s.ev)
			if s.multiDay() {
				multi = append(multi, s)
				continue
			}
			day.Single = append(day.Single, s.ev)
		}
		sortSpansForCell(multi)
		for _, s := range multi {
			day.Multi = append(day.Multi, s.ev)
		}
		out = append(out, day)
	}
	return out
}

func activeSpans(date Date, spans []span) []span {
	out := make([]span, 0, len(spans))
	for _, s := range spans {
		if s.activeOn(date) {
			out = append(out, s)
		}
	}
	return out
}

func sortSpansForCell(spans []span) {
	sort.SliceStable(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.multiDay() != b.multiDay() {
			return a.multiDay()
		}
		if !a.start.Equal(b.start) {
			return a.start.Before(b.start)
		}
		return a.index < b.index
	})
}
