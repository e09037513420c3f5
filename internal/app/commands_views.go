package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unihub/eventgrid/internal/calendar"
	"github.com/unihub/eventgrid/internal/contract"
	"github.com/unihub/eventgrid/internal/output"
	"github.com/unihub/eventgrid/internal/timeparse"
)

func newWeekCmd(opts *globalOptions) *cobra.Command {
	var of string
	var summary bool
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Stack bars and entries for a week grid",
		RunE: func(c *cobra.Command, _ []string) error {
			p, rt, ro, err := buildContext(c, opts, "week")
			if err != nil {
				return err
			}
			anchor, err := parseDayFlag(p, of, rt.loc)
			if err != nil {
				return err
			}
			ws, err := parseWeekStart(p, ro.WeekStart)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(ro)
			defer cancel()
			events, warnings, err := loadEvents(ctx, p, rt)
			if err != nil {
				return err
			}

			start, end := anchor.WeekBounds(ws)
			done := rt.metrics.Track("layout_week")
			week := rt.engine.LayoutWeek(start, events, rt.loc.String())
			done()

			meta := map[string]any{
				"view":       "week",
				"from":       start.String(),
				"to":         end.String(),
				"week_start": ws.String(),
				"tz":         rt.loc.String(),
				"bars":       len(week.Bars),
			}
			if summary {
				rows := summarizeCells(rt.engine, week.Cells, events, rt.loc.String())
				meta["count"] = len(rows)
				meta["summary"] = true
				warnings = append(warnings, layoutWarnings(rt)...)
				return successWithMeta(ctx, p, ro, rows, meta, warnings)
			}
			warnings = append(warnings, layoutWarnings(rt)...)
			if output.ResolveMode(p.Mode, p.Out) == output.ModePlain && len(p.Fields) == 0 {
				p.Warnings(warnings)
				return printWeekPlain(p.Out, week)
			}
			return successWithMeta(ctx, p, ro, week, meta, warnings)
		},
	}
	cmd.Flags().StringVar(&of, "of", "today", "Date selector within the target week")
	cmd.Flags().BoolVar(&summary, "summary", false, "Per-day counts instead of the full grid")
	return cmd
}

func newMonthCmd(opts *globalOptions) *cobra.Command {
	var month string
	var summary bool
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Lay out every week of a month grid",
		RunE: func(c *cobra.Command, _ []string) error {
			p, rt, ro, err := buildContext(c, opts, "month")
			if err != nil {
				return err
			}
			year, mon, err := timeparse.ParseMonth(month, nowFunc(), rt.loc)
			if err != nil {
				_ = p.Error(contract.ErrInvalidUsage, err.Error(), "Use --month as YYYY-MM, this, next, prev or a day selector")
				return WrapPrinted(2, err)
			}
			ws, err := parseWeekStart(p, ro.WeekStart)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(ro)
			defer cancel()
			events, warnings, err := loadEvents(ctx, p, rt)
			if err != nil {
				return err
			}

			done := rt.metrics.Track("layout_month")
			layout, err := rt.memo.LayoutMonth(ctx, year, mon, ws, events, rt.loc.String())
			done()
			if err != nil {
				err = annotateSourceError(ctx, "layout.month", err)
				_ = p.Error(contract.ErrGeneric, err.Error(), "Raise --timeout or narrow the source")
				return WrapPrinted(1, err)
			}

			first := calendar.NewDate(year, mon, 1)
			meta := map[string]any{
				"view":       "month",
				"month":      fmt.Sprintf("%04d-%02d", first.Year, int(first.Month)),
				"week_start": ws.String(),
				"weeks":      len(layout.Weeks),
				"tz":         rt.loc.String(),
			}
			if summary {
				var cells []calendar.Cell
				for _, w := range layout.Weeks {
					cells = append(cells, w.Cells...)
				}
				rows := summarizeCells(rt.engine, cells, events, rt.loc.String())
				meta["count"] = len(rows)
				meta["summary"] = true
				warnings = append(warnings, layoutWarnings(rt)...)
				return successWithMeta(ctx, p, ro, rows, meta, warnings)
			}
			warnings = append(warnings, layoutWarnings(rt)...)
			if output.ResolveMode(p.Mode, p.Out) == output.ModePlain && len(p.Fields) == 0 {
				p.Warnings(warnings)
				for i, w := range layout.Weeks {
					if i > 0 {
						_, _ = fmt.Fprintln(p.Out)
					}
					if err := printWeekPlain(p.Out, w); err != nil {
						return err
					}
				}
				return nil
			}
			return successWithMeta(ctx, p, ro, layout, meta, warnings)
		},
	}
	cmd.Flags().StringVar(&month, "month", "this", "Month selector: YYYY-MM, this, next, prev or a day selector")
	cmd.Flags().BoolVar(&summary, "summary", false, "Per-day counts instead of the full grid")
	return cmd
}

// printWeekPlain writes one line per cell. Bars are printed on their anchor
// cell only, with the number of days they span.
func printWeekPlain(out io.Writer, week calendar.WeekLayout) error {
	for _, cell := range week.Cells {
		parts := make([]string, 0, len(cell.Items)+1)
		for _, item := range cell.Items {
			switch {
			case item.Kind == calendar.ItemEntry:
				parts = append(parts, item.EventID)
			case item.Anchor && item.Segment != nil:
				parts = append(parts, fmt.Sprintf("[%s %dd]", item.EventID, item.Segment.SpanDays))
			default:
				parts = append(parts, "[...]")
			}
		}
		if cell.Overflow > 0 {
			parts = append(parts, fmt.Sprintf("+%d more", cell.Overflow))
		}
		marker := " "
		if cell.OutsideMonth {
			marker = "~"
		}
		line := fmt.Sprintf("%s%s %s  %s", marker, cell.Date, weekdayAbbrev(cell.Date), strings.Join(parts, "  "))
		if _, err := fmt.Fprintln(out, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

func weekdayAbbrev(d calendar.Date) string {
	return d.Weekday().String()[:3]
}
