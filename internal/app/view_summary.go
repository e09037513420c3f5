package app

import "github.com/unihub/eventgrid/internal/calendar"

type daySummary struct {
	Date     string `json:"date"`
	Total    int    `json:"total"`
	MultiDay int    `json:"multi_day"`
	Single   int    `json:"single"`
	Visible  int    `json:"visible"`
	Overflow int    `json:"overflow"`
}

// summarizeCells counts, for each grid cell, the events active that day and
// how many of them the cell can show.
func summarizeCells(engine *calendar.Engine, cells []calendar.Cell, events []calendar.EventInterval, zone string) []daySummary {
	dates := make([]calendar.Date, len(cells))
	for i, cell := range cells {
		dates[i] = cell.Date
	}
	days := engine.Occupancy(dates, events, zone)
	rows := make([]daySummary, 0, len(cells))
	for i, cell := range cells {
		day := days[i]
		rows = append(rows, daySummary{
			Date:     cell.Date.String(),
			Total:    len(day.Active),
			MultiDay: len(day.Multi),
			Single:   len(day.Single),
			Visible:  len(cell.Items),
			Overflow: cell.Overflow,
		})
	}
	return rows
}
