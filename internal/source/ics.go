package source

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/unihub/eventgrid/internal/calendar"
)

// parseICS turns every VEVENT into one interval. Recurrence rules are not
// expanded: the first occurrence is kept and a warning is recorded.
func parseICS(data []byte, opts Options) (Result, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return Result{}, err
	}
	out := Result{Events: make([]calendar.EventInterval, 0)}
	for i, ve := range cal.Events() {
		ev, warnings, ok := convertVEvent(ve, "vevent "+strconv.Itoa(i+1), opts)
		out.Warnings = append(out.Warnings, warnings...)
		if ok {
			out.Events = append(out.Events, ev)
		}
	}
	return out, nil
}

func convertVEvent(ve *ical.VEvent, label string, opts Options) (calendar.EventInterval, []Warning, bool) {
	var ev calendar.EventInterval
	var warnings []Warning

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		ev.ID = strings.TrimSpace(p.Value)
	}
	if ev.ID != "" {
		label = ev.ID
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.DisplayName = strings.TrimSpace(p.Value)
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, []Warning{{Record: label, Message: "skipped: DTSTART missing"}}, false
	}
	ev.Zone = tzid(dtStart)

	if isDateValue(dtStart) {
		if ev.Zone == "" {
			ev.Zone = opts.DefaultZone
		}
		start, end, err := allDayBounds(ve, ev.Zone)
		if err != nil {
			return ev, []Warning{{Record: label, Message: "skipped: " + err.Error()}}, false
		}
		ev.Start, ev.End = start, end
	} else {
		start, startErr := ve.GetStartAt()
		end, endErr := ve.GetEndAt()
		switch {
		case startErr != nil && endErr != nil:
			return ev, []Warning{{Record: label, Message: "skipped: " + startErr.Error()}}, false
		case startErr != nil:
			warnings = append(warnings, Warning{Record: label, Message: "DTSTART unreadable; using DTEND as a zero-length event"})
			start = end
		case endErr != nil:
			warnings = append(warnings, Warning{Record: label, Message: "DTEND missing or unreadable; using DTSTART as a zero-length event"})
			end = start
		}
		ev.Start, ev.End = start.UTC(), end.UTC()
	}

	if ve.GetProperty(ical.ComponentPropertyRrule) != nil {
		warnings = append(warnings, Warning{Record: label, Message: "RRULE ignored; only the first occurrence is laid out"})
	}
	if ev.ID == "" {
		ev.ID = stableID(ev.DisplayName, ev.Start)
	}
	return ev, warnings, true
}

func tzid(p *ical.IANAProperty) string {
	if p == nil || p.ICalParameters == nil {
		return ""
	}
	if vs, ok := p.ICalParameters[string(ical.ParameterTzid)]; ok && len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

// isDateValue reports a date-only DTSTART (VALUE=DATE, or no time part).
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters[string(ical.ParameterValue)]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// allDayBounds places an all-day entry at local midnight of its zone. DTEND
// is exclusive in iCalendar, so the interval stops one second before it to
// keep the next day free.
func allDayBounds(ve *ical.VEvent, zone string) (time.Time, time.Time, error) {
	loc, err := calendar.LoadZone(zone)
	if err != nil {
		loc = time.UTC
	}
	first, err := ve.GetAllDayStartAt()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	startDay := calendar.DateOf(first)
	endDay := startDay.AddDays(1)
	if last, err := ve.GetAllDayEndAt(); err == nil && calendar.DateOf(last).After(startDay) {
		endDay = calendar.DateOf(last)
	}
	start := startDay.StartOfDay(loc)
	end := endDay.StartOfDay(loc).Add(-time.Second)
	return start.UTC(), end.UTC(), nil
}
