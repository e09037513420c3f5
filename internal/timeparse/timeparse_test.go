package timeparse

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 2, 8, 15, 0, 0, 0, loc)

	cases := []struct {
		in   string
		want string
	}{
		{"today", "2026-02-08"},
		{"Tomorrow", "2026-02-09"},
		{"yesterday", "2026-02-07"},
		{"+7d", "2026-02-15"},
		{"-10d", "2026-01-29"},
		{"+2w", "2026-02-22"},
		{"2026-02-20", "2026-02-20"},
		{"2026-02-20T23:30:00-05:00", "2026-02-21"},
	}

	for _, tc := range cases {
		got, err := ParseDate(tc.in, now, loc)
		if err != nil {
			t.Fatalf("ParseDate(%q) error: %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("ParseDate(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"", "+xd", "+3h", "20/02/2026"} {
		if _, err := ParseDate(bad, now, loc); err == nil {
			t.Fatalf("ParseDate(%q) expected error", bad)
		}
	}
}

func TestParseDateUsesLocationForToday(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	now := time.Date(2026, 2, 8, 20, 0, 0, 0, time.UTC)
	got, err := ParseDate("today", now, tokyo)
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if got.String() != "2026-02-09" {
		t.Fatalf("today in JST = %s, want 2026-02-09", got)
	}
}

func TestParseMonth(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		in    string
		year  int
		month time.Month
	}{
		{"", 2026, time.January},
		{"next", 2026, time.February},
		{"prev", 2025, time.December},
		{"2026-07", 2026, time.July},
		{"2026-03-14", 2026, time.March},
		{"+30d", 2026, time.February},
	}
	for _, tc := range cases {
		y, m, err := ParseMonth(tc.in, now, time.UTC)
		if err != nil {
			t.Fatalf("ParseMonth(%q) error: %v", tc.in, err)
		}
		if y != tc.year || m != tc.month {
			t.Fatalf("ParseMonth(%q) = %d-%02d, want %d-%02d", tc.in, y, m, tc.year, tc.month)
		}
	}
	if _, _, err := ParseMonth("2026-13", now, time.UTC); err == nil {
		t.Fatalf("expected error for month 13")
	}
}

func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]time.Weekday{"": time.Sunday, "monday": time.Monday, "Sat": time.Saturday} {
		got, err := ParseWeekday(in)
		if err != nil || got != want {
			t.Fatalf("ParseWeekday(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseWeekday("funday"); err == nil {
		t.Fatalf("expected error for unknown weekday")
	}
}
