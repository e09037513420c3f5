package app

import (
	"testing"
	"time"

	"github.com/unihub/eventgrid/internal/calendar"
)

func TestParsePredicates(t *testing.T) {
	preds, err := parsePredicates([]string{"name~review", "zone==Europe/Helsinki", " "})
	if err != nil {
		t.Fatalf("parsePredicates error: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("expected 2 predicates, got %d", len(preds))
	}
	if preds[0].field != "name" || preds[0].op != "~" || preds[0].value != "review" {
		t.Fatalf("unexpected first predicate: %+v", preds[0])
	}
}

func TestParsePredicatesInvalid(t *testing.T) {
	for _, clause := range []string{"badclause", "title==x", "name>x", "start>=tomorrow", "duration<soon"} {
		if _, err := parsePredicates([]string{clause}); err == nil {
			t.Fatalf("expected error for %q", clause)
		}
	}
}

func TestApplyPredicates(t *testing.T) {
	items := []calendar.EventInterval{
		{ID: "1", DisplayName: "Design review", Zone: "Europe/Helsinki", Start: mustRFC3339(t, "2026-02-08T22:00:00+01:00"), End: mustRFC3339(t, "2026-02-08T23:00:00+01:00")},
		{ID: "2", DisplayName: "Work session", Start: mustRFC3339(t, "2026-02-08T10:00:00+01:00"), End: mustRFC3339(t, "2026-02-08T10:15:00+01:00")},
		{ID: "3", DisplayName: "Review prep", Start: mustRFC3339(t, "2026-02-08T08:00:00+01:00"), End: mustRFC3339(t, "2026-02-08T08:30:00+01:00")},
	}
	preds, err := parsePredicates([]string{"name~review", "zone!=europe/helsinki"})
	if err != nil {
		t.Fatal(err)
	}
	got := applyPredicates(items, preds)
	if len(got) != 1 || got[0].ID != "3" {
		t.Fatalf("unexpected filtered results: %+v", got)
	}
	if all := applyPredicates(items, nil); len(all) != 3 {
		t.Fatalf("no predicates should keep every event")
	}
}

func TestApplyPredicatesTimeAndDuration(t *testing.T) {
	items := []calendar.EventInterval{
		{ID: "long", Start: mustRFC3339(t, "2026-02-08T22:00:00+01:00"), End: mustRFC3339(t, "2026-02-08T23:30:00+01:00")},
		{ID: "short", Start: mustRFC3339(t, "2026-02-08T09:00:00+01:00"), End: mustRFC3339(t, "2026-02-08T09:10:00+01:00")},
	}
	preds, err := parsePredicates([]string{"start>=2026-02-08T21:00:00+01:00"})
	if err != nil {
		t.Fatal(err)
	}
	if got := applyPredicates(items, preds); len(got) != 1 || got[0].ID != "long" {
		t.Fatalf("unexpected time filter result: %+v", got)
	}
	for _, clause := range []string{"duration<15", "duration<15m"} {
		preds, err := parsePredicates([]string{clause})
		if err != nil {
			t.Fatal(err)
		}
		if got := applyPredicates(items, preds); len(got) != 1 || got[0].ID != "short" {
			t.Fatalf("%s: unexpected duration filter result: %+v", clause, got)
		}
	}
}

func mustRFC3339(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("time parse failed: %v", err)
	}
	return v
}
