package app

import (
	"testing"
	"time"

	"github.com/unihub/eventgrid/internal/calendar"
)

func TestSummarizeCells(t *testing.T) {
	at := func(d, h int) time.Time { return time.Date(2026, 2, d, h, 0, 0, 0, time.UTC) }
	events := []calendar.EventInterval{
		{ID: "b", Start: at(10, 10), End: at(10, 11)},
		{ID: "bar", Start: at(9, 10), End: at(11, 15)},
		{ID: "c", Start: at(10, 12), End: at(10, 13)},
		{ID: "d", Start: at(10, 14), End: at(10, 15)},
		{ID: "late-bar", Start: at(10, 8), End: at(12, 9)},
	}
	engine := calendar.NewEngine(calendar.DefaultOptions(), nil)
	week := engine.LayoutWeek(calendar.NewDate(2026, time.February, 8), events, "UTC")

	rows := summarizeCells(engine, week.Cells, events, "UTC")
	if len(rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(rows))
	}
	if rows[0].Date != "2026-02-08" || rows[0].Total != 0 || rows[0].Visible != 0 {
		t.Fatalf("unexpected sunday summary: %+v", rows[0])
	}
	if rows[1].Total != 1 || rows[1].MultiDay != 1 || rows[1].Visible != 1 {
		t.Fatalf("unexpected monday summary: %+v", rows[1])
	}
	tue := rows[2]
	if tue.Total != 5 || tue.MultiDay != 2 || tue.Single != 3 || tue.Visible != 2 || tue.Overflow != 3 {
		t.Fatalf("unexpected tuesday summary: %+v", tue)
	}
}
