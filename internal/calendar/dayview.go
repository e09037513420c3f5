package calendar

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const minutesPerDay = 24 * 60

// Tile is the hour-grid position of one event on one day.
type Tile struct {
	EventID     string `json:"event_id"`
	DisplayName string `json:"display_name"`
	// StartMinute and EndMinute are wall-clock minutes of the clamped
	// display window, within [0, 1440].
	StartMinute float64 `json:"start_minute"`
	EndMinute   float64 `json:"end_minute"`
	// StartsBeforeDay and EndsAfterDay mark windows clamped to midnight.
	StartsBeforeDay bool    `json:"starts_before_day"`
	EndsAfterDay    bool    `json:"ends_after_day"`
	TopOffsetPx     float64 `json:"top_offset_px"`
	HeightPx        float64 `json:"height_px"`
	WidthFraction   float64 `json:"width_fraction"`
	LeftFraction    float64 `json:"left_fraction"`
	Cluster         int     `json:"cluster"`
	ClusterSize     int     `json:"cluster_size"`
	// Hidden and Overflow are only set when a cluster has more members
	// than visible columns, either through MaxTilesPerCluster or because
	// the gaps leave no positive width. The last visible tile carries the
	// number of events it stands for.
	Hidden   bool `json:"hidden,omitempty"`
	Overflow int  `json:"overflow,omitempty"`
}

// LayoutDay positions every event active on date on an hour grid. Events
// whose windows overlap, directly or through other events, share the row
// width in equal tiles. Tiles come back in input order.
func (e *Engine) LayoutDay(date Date, events []EventInterval, defaultZone string) []Tile {
	spans := activeSpans(date, e.localize(events, defaultZone))
	tiles := make([]Tile, len(spans))
	if len(spans) == 0 {
		return tiles
	}

	windows := make([]window, len(spans))
	for i, s := range spans {
		w, clampedStart, clampedEnd := displayWindow(s, date)
		windows[i] = w
		height := (w.end - w.start) / 60 * e.opts.HourHeightPx
		tiles[i] = Tile{
			EventID:         s.ev.ID,
			DisplayName:     s.ev.DisplayName,
			StartMinute:     w.start,
			EndMinute:       w.end,
			StartsBeforeDay: clampedStart,
			EndsAfterDay:    clampedEnd,
			TopOffsetPx:     w.start / 60 * e.opts.HourHeightPx,
			HeightPx:        math.Max(height, e.opts.MinTileHeightPx),
		}
	}

	for ci, members := range clusterWindows(windows) {
		order := append([]int(nil), members...)
		sort.SliceStable(order, func(a, b int) bool {
			return windows[order[a]].start < windows[order[b]].start
		})
		e.placeCluster(tiles, order, ci)
	}
	return tiles
}

// PositionOf returns the tile of the event with the given id on date.
func (e *Engine) PositionOf(date Date, events []EventInterval, defaultZone, id string) (Tile, error) {
	for _, t := range e.LayoutDay(date, events, defaultZone) {
		if t.EventID == id {
			return t, nil
		}
	}
	return Tile{}, fmt.Errorf("%w: %s on %s", ErrEventNotInScope, id, date)
}

// placeCluster assigns equal widths to the members of one cluster, left to
// right in order.
func (e *Engine) placeCluster(tiles []Tile, order []int, cluster int) {
	k := len(order)
	gap := e.opts.TileGapFraction
	visible := k
	if limit := e.opts.MaxTilesPerCluster; limit > 0 && visible > limit {
		visible = limit
	}
	if limit := maxColumns(gap); limit > 0 && visible > limit {
		visible = limit
	}
	if visible == 1 {
		gap = 0
	}
	width := (1 - gap*float64(visible-1)) / float64(visible)

	for i, idx := range order {
		t := &tiles[idx]
		t.Cluster = cluster
		t.ClusterSize = k
		if i >= visible {
			t.Hidden = true
			continue
		}
		t.WidthFraction = width
		t.LeftFraction = float64(i) * (width + gap)
		if visible < k && i == visible-1 {
			t.Overflow = k - (visible - 1)
		}
	}
}

// maxColumns is the largest column count whose tiles keep a positive width
// with gap between them. Zero means no limit.
func maxColumns(gap float64) int {
	if gap <= 0 {
		return 0
	}
	return int(math.Floor((1+gap)/gap)) - 1
}

// displayWindow clamps s to date in the event's own zone. The booleans
// report whether the window was cut at the start or the end of the day.
func displayWindow(s span, date Date) (window, bool, bool) {
	startsBefore := s.startDate.Before(date)
	endsAfter := s.endDate.After(date)

	start := 0.0
	if !startsBefore {
		start = wallMinutes(s.start)
	}
	// Days continuing past midnight end at 1440 rather than 23:59:59.999;
	// overlap is half-open so both give the same clusters.
	end := float64(minutesPerDay)
	if !endsAfter {
		end = wallMinutes(s.end)
	}
	// A DST fall-back can move the wall clock backwards inside one day.
	if end < start {
		end = start
	}
	return window{start: start, end: end}, startsBefore, endsAfter
}

func wallMinutes(t time.Time) float64 {
	return float64(t.Hour()*60+t.Minute()) +
		float64(t.Second())/60 +
		float64(t.Nanosecond())/float64(time.Minute)
}
