package calendar

import (
	"context"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMemoSize = 128

// Memo caches day and month layouts keyed by a fingerprint of the inputs.
// It returns copies, so callers may modify results freely. Diagnostics are
// reported only when a layout is first computed.
type Memo struct {
	engine *Engine
	days   *lru.Cache[uint64, []Tile]
	months *lru.Cache[uint64, MonthLayout]
}

func NewMemo(engine *Engine, size int) (*Memo, error) {
	if engine == nil {
		engine = defaultEngine
	}
	if size <= 0 {
		size = defaultMemoSize
	}
	days, err := lru.New[uint64, []Tile](size)
	if err != nil {
		return nil, err
	}
	months, err := lru.New[uint64, MonthLayout](size)
	if err != nil {
		return nil, err
	}
	return &Memo{engine: engine, days: days, months: months}, nil
}

func (m *Memo) Engine() *Engine { return m.engine }

func (m *Memo) LayoutDay(date Date, events []EventInterval, defaultZone string) []Tile {
	key := fingerprint("day", date.String(), defaultZone, events)
	if tiles, ok := m.days.Get(key); ok {
		return cloneTiles(tiles)
	}
	tiles := m.engine.LayoutDay(date, events, defaultZone)
	m.days.Add(key, cloneTiles(tiles))
	return tiles
}

func (m *Memo) LayoutMonth(ctx context.Context, year int, month time.Month, weekStart time.Weekday, events []EventInterval, defaultZone string) (MonthLayout, error) {
	scope := strconv.Itoa(year) + "-" + strconv.Itoa(int(month)) + "/" + weekStart.String()
	key := fingerprint("month", scope, defaultZone, events)
	if layout, ok := m.months.Get(key); ok {
		return cloneMonth(layout), nil
	}
	layout, err := m.engine.LayoutMonth(ctx, year, month, weekStart, events, defaultZone)
	if err != nil {
		return MonthLayout{}, err
	}
	m.months.Add(key, cloneMonth(layout))
	return layout, nil
}

func fingerprint(op, scope, zone string, events []EventInterval) uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 128)
	write := func(parts ...string) {
		for _, p := range parts {
			buf = append(buf[:0], p...)
			buf = append(buf, 0)
			_, _ = d.Write(buf)
		}
	}
	write(op, scope, zone)
	for _, ev := range events {
		write(ev.ID, ev.DisplayName, ev.Zone,
			strconv.FormatInt(ev.Start.Unix(), 10), strconv.Itoa(ev.Start.Nanosecond()),
			strconv.FormatInt(ev.End.Unix(), 10), strconv.Itoa(ev.End.Nanosecond()))
	}
	return d.Sum64()
}

func cloneTiles(in []Tile) []Tile {
	out := make([]Tile, len(in))
	copy(out, in)
	return out
}

func cloneMonth(in MonthLayout) MonthLayout {
	out := in
	out.Weeks = make([]WeekLayout, len(in.Weeks))
	for i, w := range in.Weeks {
		cw := w
		cw.Bars = make([]Segment, len(w.Bars))
		copy(cw.Bars, w.Bars)
		cw.Cells = make([]Cell, len(w.Cells))
		for j, c := range w.Cells {
			cc := c
			cc.Items = make([]CellItem, len(c.Items))
			for k, item := range c.Items {
				if item.Segment != nil {
					seg := *item.Segment
					item.Segment = &seg
				}
				cc.Items[k] = item
			}
			cw.Cells[j] = cc
		}
		out.Weeks[i] = cw
	}
	return out
}
