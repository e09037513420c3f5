package calendar

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func event(id string, start, end time.Time) EventInterval {
	return EventInterval{ID: id, DisplayName: "Event " + id, Start: start, End: end}
}

func date(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func ids(events []EventInterval) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}

func tileByID(t *testing.T, tiles []Tile, id string) Tile {
	t.Helper()
	for _, tile := range tiles {
		if tile.EventID == id {
			return tile
		}
	}
	t.Fatalf("tile %s not found in %+v", id, tiles)
	return Tile{}
}
