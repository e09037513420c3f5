package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/unihub/eventgrid/internal/calendar"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"error":   slog.LevelError,
		"":        slog.LevelWarn,
		"verbose": slog.LevelWarn,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestReporterLogsIssueAsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})

	log.Reporter().Report(calendar.Issue{EventID: "42", Kind: calendar.IssueZoneFallback, Detail: "unknown zone"})

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["level"] != "WARN" || rec["event_id"] != "42" || rec["kind"] != "zone_fallback" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestLevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "error", Output: &buf})
	log.Warn("dropped")
	log.With("source", "events.json").Error("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("warn record should be filtered: %q", out)
	}
	if !strings.Contains(out, "kept") || !strings.Contains(out, "source=events.json") {
		t.Fatalf("missing error record: %q", out)
	}
}
