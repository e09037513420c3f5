package source

import (
	"strings"
	"testing"
	"time"
)

func TestParseInstant(t *testing.T) {
	want := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2026-02-10T09:00:00Z", want},
		{"2026-02-10T10:00:00+01:00", want},
		{"2026-02-10T09:00:00", want},
		{"2026-02-10 09:00:00", want},
		{"1770714000", want},
		{"1770714000.5", want.Add(500 * time.Millisecond)},
		{"1770714000000", want},
	}
	for _, tc := range cases {
		got, err := parseInstant(tc.in)
		if err != nil {
			t.Fatalf("parseInstant(%q) error: %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("parseInstant(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"", "tomorrow", "2026-13-40T00:00:00Z"} {
		if _, err := parseInstant(bad); err == nil {
			t.Fatalf("parseInstant(%q) expected error", bad)
		}
	}
}

func TestToIntervalRepairsOneBadInstant(t *testing.T) {
	r := record{ID: "7", Name: "Career fair", Start: "2026-02-10T09:00:00Z", End: "soon"}
	ev, warnings, ok := r.toInterval("record 1")
	if !ok {
		t.Fatalf("record should be kept")
	}
	if !ev.Start.Equal(ev.End) {
		t.Fatalf("expected zero-length event, got %s..%s", ev.Start, ev.End)
	}
	if len(warnings) != 1 || warnings[0].Record != "7" {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
}

func TestToIntervalSkipsRecordWithoutInstants(t *testing.T) {
	r := record{Name: "Ghost"}
	_, warnings, ok := r.toInterval("record 4")
	if ok {
		t.Fatalf("record without instants must be skipped")
	}
	if len(warnings) != 1 || warnings[0].Record != "record 4" || !strings.HasPrefix(warnings[0].Message, "skipped") {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
}

func TestToIntervalDerivesStableID(t *testing.T) {
	r := record{Name: "Hack night", Start: "2026-02-10T18:00:00Z", End: "2026-02-10T23:00:00Z", Timezone: " Europe/Berlin "}
	a, _, _ := r.toInterval("record 1")
	b, _, _ := r.toInterval("record 9")
	if a.ID == "" || a.ID != b.ID {
		t.Fatalf("expected stable derived id, got %q and %q", a.ID, b.ID)
	}
	if a.Zone != "Europe/Berlin" {
		t.Fatalf("zone not trimmed: %q", a.Zone)
	}

	r.Name = "Other"
	c, _, _ := r.toInterval("record 1")
	if c.ID == a.ID {
		t.Fatalf("different names must give different ids")
	}
}

func TestDecodeJSONRecordsAcceptsNumericIDs(t *testing.T) {
	records, err := decodeJSONRecords([]byte(`{"events":[{"id":42,"name":"Talk","eventStartDateUtc":1770714000,"eventEndDateUtc":"2026-02-10T10:00:00Z","eventTimezone":"UTC"}]}`))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(records) != 1 || records[0].ID != "42" || records[0].Start != "1770714000" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestDecodeYAMLRecordsRejectsScalars(t *testing.T) {
	if _, err := decodeYAMLRecords([]byte("just text\n")); err == nil {
		t.Fatalf("expected error for scalar document")
	}
	records, err := decodeYAMLRecords([]byte(""))
	if err != nil || len(records) != 0 {
		t.Fatalf("empty document = %v, %v", records, err)
	}
}
