package app

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/unihub/eventgrid/internal/calendar"
	"github.com/unihub/eventgrid/internal/contract"
	"github.com/unihub/eventgrid/internal/output"
	"github.com/unihub/eventgrid/internal/timeparse"
)

var nowFunc = time.Now

type activeSplit struct {
	Single []contract.ActiveEvent `json:"single"`
	Multi  []contract.ActiveEvent `json:"multi"`
}

type segmentResult struct {
	EventID   string            `json:"event_id"`
	Date      calendar.Date     `json:"date"`
	WeekStart calendar.Date     `json:"week_start"`
	WeekEnd   calendar.Date     `json:"week_end"`
	Anchored  bool              `json:"anchored"`
	Segment   *calendar.Segment `json:"segment"`
}

func newActiveCmd(opts *globalOptions) *cobra.Command {
	var day string
	var split bool
	cmd := &cobra.Command{
		Use:   "active",
		Short: "List events that touch a calendar day",
		RunE: func(c *cobra.Command, _ []string) error {
			p, rt, ro, err := buildContext(c, opts, "active")
			if err != nil {
				return err
			}
			date, err := parseDayFlag(p, day, rt.loc)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(ro)
			defer cancel()
			events, warnings, err := loadEvents(ctx, p, rt)
			if err != nil {
				return err
			}

			done := rt.metrics.Track("active")
			occ := rt.engine.Occupancy([]calendar.Date{date}, events, rt.loc.String())[0]
			done()

			multiIDs := make(map[string]bool, len(occ.Multi))
			for _, ev := range occ.Multi {
				multiIDs[ev.ID] = true
			}
			meta := map[string]any{
				"date":  date.String(),
				"tz":    rt.loc.String(),
				"count": len(occ.Active),
				"multi": len(occ.Multi),
			}
			warnings = append(warnings, layoutWarnings(rt)...)
			if split {
				data := activeSplit{
					Single: toActiveEvents(occ.Single, multiIDs, rt.loc),
					Multi:  toActiveEvents(occ.Multi, multiIDs, rt.loc),
				}
				if output.ResolveMode(p.Mode, p.Out) == output.ModePlain {
					return successWithMeta(ctx, p, ro, append(data.Multi, data.Single...), meta, warnings)
				}
				return successWithMeta(ctx, p, ro, data, meta, warnings)
			}
			return successWithMeta(ctx, p, ro, toActiveEvents(occ.Active, multiIDs, rt.loc), meta, warnings)
		},
	}
	cmd.Flags().StringVar(&day, "date", "today", "Day selector (today, tomorrow, +Nd, YYYY-MM-DD)")
	cmd.Flags().BoolVar(&split, "split", false, "Split into single-day and multi-day events")
	return cmd
}

func newDayCmd(opts *globalOptions) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Lay out a day on the hour grid",
		RunE: func(c *cobra.Command, _ []string) error {
			p, rt, ro, err := buildContext(c, opts, "day")
			if err != nil {
				return err
			}
			date, err := parseDayFlag(p, day, rt.loc)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(ro)
			defer cancel()
			events, warnings, err := loadEvents(ctx, p, rt)
			if err != nil {
				return err
			}

			done := rt.metrics.Track("layout_day")
			tiles := rt.memo.LayoutDay(date, events, rt.loc.String())
			done()

			meta := map[string]any{
				"date":     date.String(),
				"tz":       rt.loc.String(),
				"count":    len(tiles),
				"clusters": clusterCount(tiles),
			}
			warnings = append(warnings, layoutWarnings(rt)...)
			if output.ResolveMode(p.Mode, p.Out) == output.ModePlain && len(p.Fields) == 0 {
				p.Warnings(warnings)
				return printTilesPlain(p.Out, tiles, rt.engine.Options().TileGapFraction, p.Quiet)
			}
			return successWithMeta(ctx, p, ro, tiles, meta, warnings)
		},
	}
	cmd.Flags().StringVar(&day, "day", "today", "Day selector (today, tomorrow, +Nd, YYYY-MM-DD)")
	return cmd
}

func newPositionCmd(opts *globalOptions) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "position <event-id>",
		Short: "Show where one event sits on a day's hour grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			p, rt, ro, err := buildContext(c, opts, "position")
			if err != nil {
				return err
			}
			date, err := parseDayFlag(p, day, rt.loc)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(ro)
			defer cancel()
			events, warnings, err := loadEvents(ctx, p, rt)
			if err != nil {
				return err
			}

			done := rt.metrics.Track("position")
			tile, err := rt.engine.PositionOf(date, events, rt.loc.String(), args[0])
			done()
			if errors.Is(err, calendar.ErrEventNotInScope) {
				_ = p.Error(contract.ErrNotFound, err.Error(), "Run `eventgrid active --date "+date.String()+"` to list events on that day")
				return WrapPrinted(4, err)
			}
			if err != nil {
				return Wrap(1, err)
			}
			warnings = append(warnings, layoutWarnings(rt)...)
			return successWithMeta(ctx, p, ro, tile, map[string]any{"date": date.String(), "tz": rt.loc.String()}, warnings)
		},
	}
	cmd.Flags().StringVar(&day, "day", "today", "Day selector (today, tomorrow, +Nd, YYYY-MM-DD)")
	return cmd
}

func newSegmentCmd(opts *globalOptions) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "segment <event-id>",
		Short: "Show the week bar a multi-day event anchors on a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			p, rt, ro, err := buildContext(c, opts, "segment")
			if err != nil {
				return err
			}
			date, err := parseDayFlag(p, day, rt.loc)
			if err != nil {
				return err
			}
			weekStart, err := parseWeekStart(p, ro.WeekStart)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(ro)
			defer cancel()
			events, warnings, err := loadEvents(ctx, p, rt)
			if err != nil {
				return err
			}

			ev, ok := findEvent(events, args[0])
			if !ok {
				err := fmt.Errorf("event %q: %w", args[0], calendar.ErrEventNotInScope)
				_ = p.Error(contract.ErrNotFound, err.Error(), "Check the event id in the source")
				return WrapPrinted(4, err)
			}
			ws, we := date.WeekBounds(weekStart)
			done := rt.metrics.Track("segment")
			seg, anchored := rt.engine.LayoutWeekSegment(date, ev, rt.loc.String(), ws, we)
			done()

			res := segmentResult{EventID: ev.ID, Date: date, WeekStart: ws, WeekEnd: we, Anchored: anchored}
			if anchored {
				res.Segment = &seg
			}
			warnings = append(warnings, layoutWarnings(rt)...)
			return successWithMeta(ctx, p, ro, res, map[string]any{"tz": rt.loc.String(), "week_start": weekStart.String()}, warnings)
		},
	}
	cmd.Flags().StringVar(&day, "date", "today", "Day selector (today, tomorrow, +Nd, YYYY-MM-DD)")
	return cmd
}

func parseDayFlag(p output.Printer, raw string, loc *time.Location) (calendar.Date, error) {
	date, err := timeparse.ParseDate(raw, nowFunc(), loc)
	if err != nil {
		_ = p.Error(contract.ErrInvalidUsage, err.Error(), "Use today, tomorrow, +Nd, -Nw or YYYY-MM-DD")
		return calendar.Date{}, WrapPrinted(2, err)
	}
	return date, nil
}

func parseWeekStart(p output.Printer, raw string) (time.Weekday, error) {
	wd, err := timeparse.ParseWeekday(raw)
	if err != nil {
		_ = p.Error(contract.ErrInvalidUsage, err.Error(), "Use a weekday name such as sunday or mon")
		return wd, WrapPrinted(2, err)
	}
	return wd, nil
}

func findEvent(events []calendar.EventInterval, id string) (calendar.EventInterval, bool) {
	for _, ev := range events {
		if ev.ID == id {
			return ev, true
		}
	}
	return calendar.EventInterval{}, false
}

func toActiveEvents(events []calendar.EventInterval, multi map[string]bool, fallback *time.Location) []contract.ActiveEvent {
	out := make([]contract.ActiveEvent, 0, len(events))
	for _, ev := range events {
		loc := fallback
		if ev.Zone != "" {
			if z, err := calendar.LoadZone(ev.Zone); err == nil {
				loc = z
			}
		}
		end := ev.End
		if end.IsZero() || end.Before(ev.Start) {
			end = ev.Start
		}
		out = append(out, contract.ActiveEvent{
			ID:       ev.ID,
			Name:     ev.DisplayName,
			Start:    ev.Start.In(loc),
			End:      end.In(loc),
			Zone:     loc.String(),
			MultiDay: multi[ev.ID],
		})
	}
	return out
}

func clusterCount(tiles []calendar.Tile) int {
	seen := map[int]bool{}
	for _, t := range tiles {
		seen[t.Cluster] = true
	}
	return len(seen)
}

// printTilesPlain writes one line per tile: clock window, column and name.
func printTilesPlain(out io.Writer, tiles []calendar.Tile, gap float64, quiet bool) error {
	if len(tiles) == 0 {
		if !quiet {
			_, _ = fmt.Fprintln(out, "no events")
		}
		return nil
	}
	for _, t := range tiles {
		if t.Hidden {
			continue
		}
		col := int(t.LeftFraction/(t.WidthFraction+gap) + 0.5)
		line := fmt.Sprintf("%s-%s  %d/%d  %s  %s",
			clock(t.StartMinute), clock(t.EndMinute), col+1, t.ClusterSize, t.EventID, t.DisplayName)
		if t.Overflow > 0 {
			line += fmt.Sprintf("  (+%s more)", humanize.Comma(int64(t.Overflow-1)))
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

func clock(minute float64) string {
	m := int(minute + 0.5)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
