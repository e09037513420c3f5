package calendar

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

type MonthLayout struct {
	Year      int          `json:"year"`
	Month     time.Month   `json:"month"`
	WeekStart time.Weekday `json:"week_start"`
	Weeks     []WeekLayout `json:"weeks"`
}

// MonthWeeks returns the first day of every displayed week of a month grid,
// including the leading and trailing days of neighbouring months.
func MonthWeeks(year int, month time.Month, weekStart time.Weekday) []Date {
	first := NewDate(year, month, 1)
	last := NewDate(year, month+1, 0)
	start, _ := first.WeekBounds(weekStart)
	out := make([]Date, 0, 6)
	for d := start; !d.After(last); d = d.AddDays(7) {
		out = append(out, d)
	}
	return out
}

// LayoutMonth lays out every week of the month grid. Weeks are independent
// so they are computed concurrently; ctx cancels weeks not yet started.
func (e *Engine) LayoutMonth(ctx context.Context, year int, month time.Month, weekStart time.Weekday, events []EventInterval, defaultZone string) (MonthLayout, error) {
	first := NewDate(year, month, 1)
	out := MonthLayout{Year: first.Year, Month: first.Month, WeekStart: weekStart}

	starts := MonthWeeks(first.Year, first.Month, weekStart)
	spans := e.localize(events, defaultZone)
	weeks := make([]WeekLayout, len(starts))

	g, gctx := errgroup.WithContext(ctx)
	for i, ws := range starts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			weeks[i] = e.layoutWeekSpans(ws, spans)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MonthLayout{}, err
	}

	for w := range weeks {
		for c := range weeks[w].Cells {
			weeks[w].Cells[c].OutsideMonth = weeks[w].Cells[c].Date.Month != first.Month
		}
	}
	out.Weeks = weeks
	return out, nil
}
