package calendar

import "sort"

// Segment is the part of a multi-day event drawn as one bar inside a
// displayed week.
type Segment struct {
	EventID     string `json:"event_id"`
	DisplayName string `json:"display_name"`
	Start       Date   `json:"start"`
	End         Date   `json:"end"`
	SpanDays    int    `json:"span_days"`
	// LeftFraction is always 0 and WidthFraction equals SpanDays: the bar
	// starts at the left edge of its anchor cell and is measured in cells.
	LeftFraction  float64 `json:"left_fraction"`
	WidthFraction float64 `json:"width_fraction"`
	RoundedLeft   bool    `json:"rounded_left"`
	RoundedRight  bool    `json:"rounded_right"`
}

// WidthPx converts the bar width to pixels, bridging the gaps between the
// cells it crosses.
func (s Segment) WidthPx(cellWidth, cellGapPx float64) float64 {
	if s.SpanDays <= 0 {
		return 0
	}
	return float64(s.SpanDays)*cellWidth + float64(s.SpanDays-1)*cellGapPx
}

// LayoutWeekSegment returns the bar of a multi-day event for the week
// [weekStart, weekEnd]. The bar is reported once, on the first day of its
// visible segment; every other date returns false because the anchored bar
// already spans it. Single-day events never produce a segment.
func (e *Engine) LayoutWeekSegment(date Date, event EventInterval, defaultZone string, weekStart, weekEnd Date) (Segment, bool) {
	s := e.localizeOne(event, defaultZone, 0)
	seg, ok := weekSegment(s, weekStart, weekEnd)
	if !ok || seg.Start != date {
		return Segment{}, false
	}
	return seg, true
}

func weekSegment(s span, weekStart, weekEnd Date) (Segment, bool) {
	if !s.multiDay() || weekEnd.Before(weekStart) {
		return Segment{}, false
	}
	segStart := maxDate(s.startDate, weekStart)
	segEnd := minDate(s.endDate, weekEnd)
	if segEnd.Before(segStart) {
		return Segment{}, false
	}
	days := segStart.DaysUntil(segEnd) + 1
	return Segment{
		EventID:       s.ev.ID,
		DisplayName:   s.ev.DisplayName,
		Start:         segStart,
		End:           segEnd,
		SpanDays:      days,
		LeftFraction:  0,
		WidthFraction: float64(days),
		RoundedLeft:   segStart == s.startDate || segStart == weekStart,
		RoundedRight:  segEnd == s.endDate || segEnd == weekEnd,
	}, true
}

type CellItemKind string

const (
	ItemBar   CellItemKind = "bar"
	ItemEntry CellItemKind = "entry"
)

// CellItem is one row slot in a week-grid cell. Bars appear in every cell
// they cross so the row stays reserved; only the anchor cell renders them.
type CellItem struct {
	EventID     string       `json:"event_id"`
	DisplayName string       `json:"display_name"`
	Kind        CellItemKind `json:"kind"`
	Row         int          `json:"row"`
	TopOffsetPx float64      `json:"top_offset_px"`
	Anchor      bool         `json:"anchor"`
	Segment     *Segment     `json:"segment,omitempty"`
}

type Cell struct {
	Date  Date       `json:"date"`
	Items []CellItem `json:"items"`
	// Overflow counts the items beyond the visible rows ("+N more").
	Overflow     int  `json:"overflow"`
	OutsideMonth bool `json:"outside_month,omitempty"`
}

type WeekLayout struct {
	Start Date      `json:"start"`
	End   Date      `json:"end"`
	Bars  []Segment `json:"bars"`
	Cells []Cell    `json:"cells"`
	// CellGapPx is the gap a renderer passes to Segment.WidthPx.
	CellGapPx float64 `json:"cell_gap_px"`
}

// LayoutWeek stacks the events of the seven days starting at weekStart.
// Bars are placed first, each on the lowest row free on all of its days,
// then single-day entries take the lowest free row of their day.
func (e *Engine) LayoutWeek(weekStart Date, events []EventInterval, defaultZone string) WeekLayout {
	return e.layoutWeekSpans(weekStart, e.localize(events, defaultZone))
}

type placement struct {
	s     span
	row   int
	first int
	last  int
	seg   *Segment
	isBar bool
}

func (e *Engine) layoutWeekSpans(weekStart Date, spans []span) WeekLayout {
	weekEnd := weekStart.AddDays(6)
	out := WeekLayout{Start: weekStart, End: weekEnd, Bars: make([]Segment, 0), Cells: make([]Cell, 7), CellGapPx: e.opts.CellGapPx}

	ordered := append([]span(nil), spans...)
	sortSpansForCell(ordered)

	var rows [7]map[int]bool
	for i := range rows {
		rows[i] = map[int]bool{}
	}
	placements := make([]placement, 0)

	for day := 0; day < 7; day++ {
		date := weekStart.AddDays(day)
		for _, s := range ordered {
			if s.multiDay() {
				seg, ok := weekSegment(s, weekStart, weekEnd)
				if !ok || seg.Start != date {
					continue
				}
				last := day + seg.SpanDays - 1
				row := lowestFreeRow(rows[day : last+1])
				for d := day; d <= last; d++ {
					rows[d][row] = true
				}
				out.Bars = append(out.Bars, seg)
				segCopy := seg
				placements = append(placements, placement{s: s, row: row, first: day, last: last, seg: &segCopy, isBar: true})
				continue
			}
			if s.startDate != date {
				continue
			}
			row := lowestFreeRow(rows[day : day+1])
			rows[day][row] = true
			placements = append(placements, placement{s: s, row: row, first: day, last: day})
		}
	}

	for day := 0; day < 7; day++ {
		out.Cells[day] = Cell{Date: weekStart.AddDays(day), Items: make([]CellItem, 0)}
	}
	for _, p := range placements {
		for d := p.first; d <= p.last; d++ {
			cell := &out.Cells[d]
			if p.row >= e.opts.MaxVisiblePerCell {
				cell.Overflow++
				continue
			}
			item := CellItem{
				EventID:     p.s.ev.ID,
				DisplayName: p.s.ev.DisplayName,
				Kind:        ItemEntry,
				Row:         p.row,
				TopOffsetPx: float64(p.row) * e.opts.RowHeightPx,
				Anchor:      d == p.first,
			}
			if p.isBar {
				item.Kind = ItemBar
				if item.Anchor {
					item.Segment = p.seg
				}
			}
			cell.Items = append(cell.Items, item)
		}
	}
	for day := range out.Cells {
		items := out.Cells[day].Items
		sort.SliceStable(items, func(i, j int) bool { return items[i].Row < items[j].Row })
	}
	return out
}

func lowestFreeRow(days []map[int]bool) int {
	for row := 0; ; row++ {
		free := true
		for _, used := range days {
			if used[row] {
				free = false
				break
			}
		}
		if free {
			return row
		}
	}
}
