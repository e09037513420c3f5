// Package timeparse reads the date selectors accepted on the command line.
package timeparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/unihub/eventgrid/internal/calendar"
)

// ParseDate resolves a day selector relative to now in loc: today,
// tomorrow, yesterday, +Nd/-Nd, +Nw/-Nw, YYYY-MM-DD or an RFC 3339 instant.
func ParseDate(input string, now time.Time, loc *time.Location) (calendar.Date, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := strings.TrimSpace(strings.ToLower(input))
	if s == "" {
		return calendar.Date{}, fmt.Errorf("empty date")
	}
	today := calendar.DateOf(now.In(loc))

	switch s {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDays(1), nil
	case "yesterday":
		return today.AddDays(-1), nil
	}

	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		sign := 1
		if strings.HasPrefix(s, "-") {
			sign = -1
		}
		raw := s[1:]
		unit := 1
		switch {
		case strings.HasSuffix(raw, "d"):
			raw = strings.TrimSuffix(raw, "d")
		case strings.HasSuffix(raw, "w"):
			raw = strings.TrimSuffix(raw, "w")
			unit = 7
		default:
			return calendar.Date{}, fmt.Errorf("invalid relative day: %s", input)
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return calendar.Date{}, fmt.Errorf("invalid relative day: %s", input)
		}
		return today.AddDays(sign * n * unit), nil
	}

	if d, err := calendar.ParseDate(input); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(input)); err == nil {
		return calendar.DateOf(ts.In(loc)), nil
	}
	return calendar.Date{}, fmt.Errorf("unsupported date format: %s", input)
}

// ParseMonth resolves a month selector: YYYY-MM, this, next, prev, or any
// day selector accepted by ParseDate.
func ParseMonth(input string, now time.Time, loc *time.Location) (int, time.Month, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := strings.TrimSpace(strings.ToLower(input))
	today := calendar.DateOf(now.In(loc))
	switch s {
	case "", "this":
		return today.Year, today.Month, nil
	case "next":
		d := calendar.NewDate(today.Year, today.Month+1, 1)
		return d.Year, d.Month, nil
	case "prev", "last":
		d := calendar.NewDate(today.Year, today.Month-1, 1)
		return d.Year, d.Month, nil
	}
	if ts, err := time.Parse("2006-01", s); err == nil {
		return ts.Year(), ts.Month(), nil
	}
	d, err := ParseDate(input, now, loc)
	if err != nil {
		return 0, 0, fmt.Errorf("unsupported month format: %s", input)
	}
	return d.Year, d.Month, nil
}

// ParseWeekday reads a week start such as "monday" or "sun".
func ParseWeekday(input string) (time.Weekday, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	if s == "" {
		return time.Sunday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid week start: %s", input)
}
