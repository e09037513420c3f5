package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/unihub/eventgrid/internal/contract"
)

func TestSchemaVersionDefault(t *testing.T) {
	p := Printer{}
	if p.schemaVersion() != contract.SchemaVersion {
		t.Fatalf("expected default schema version %q", contract.SchemaVersion)
	}
}

type row struct {
	EventID string    `json:"event_id"`
	Width   float64   `json:"width_fraction"`
	Start   time.Time `json:"start"`
}

func TestFlattenWithFields(t *testing.T) {
	r := row{EventID: "abc", Width: 0.492500001, Start: time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)}
	got := flatten(r, []string{"event_id", "width_fraction", "start", "missing"})
	if got != "abc\t0.4925\t2026-02-16T10:00:00Z\t" {
		t.Fatalf("unexpected flatten result: %q", got)
	}
	if got := flatten(r, []string{"EventID"}); got != "abc" {
		t.Fatalf("field name match failed: %q", got)
	}
}

func TestResolveModeForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	if got := ResolveMode(ModeAuto, &buf); got != ModeJSON {
		t.Fatalf("auto mode on buffer = %s, want json", got)
	}
	if got := ResolveMode(ModePlain, &buf); got != ModePlain {
		t.Fatalf("explicit mode must win, got %s", got)
	}
}

func TestSuccessJSONEnvelope(t *testing.T) {
	var out bytes.Buffer
	p := Printer{Mode: ModeJSON, Command: "day", Out: &out}
	if err := p.Success([]row{{EventID: "a"}}, nil, nil); err != nil {
		t.Fatalf("Success: %v", err)
	}
	var env map[string]any
	if err := json.Unmarshal(out.Bytes(), &env); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if env["command"] != "day" || env["schema_version"] != "v1" {
		t.Fatalf("unexpected envelope: %v", env)
	}
	if w, ok := env["warnings"].([]any); !ok || len(w) != 0 {
		t.Fatalf("warnings should be an empty list: %v", env["warnings"])
	}
}

func TestPlainWarningsGoToStderr(t *testing.T) {
	var out, errOut bytes.Buffer
	p := Printer{Mode: ModePlain, Out: &out, Err: &errOut, Fields: []string{"event_id"}}
	if err := p.Success([]row{{EventID: "a"}, {EventID: "b"}}, nil, []string{"x: bad zone", "y: bad end"}); err != nil {
		t.Fatalf("Success: %v", err)
	}
	if out.String() != "a\nb\n" {
		t.Fatalf("unexpected stdout: %q", out.String())
	}
	if !strings.HasPrefix(errOut.String(), "2 warnings:\n") {
		t.Fatalf("unexpected stderr: %q", errOut.String())
	}
}

func TestErrorEnvelope(t *testing.T) {
	var errOut bytes.Buffer
	p := Printer{Mode: ModeJSON, Err: &errOut}
	_ = p.Error(contract.ErrNotFound, "event x not found", "check the id")
	var env contract.ErrorEnvelope
	if err := json.Unmarshal(errOut.Bytes(), &env); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if env.Error.Code != contract.ErrNotFound || env.Error.Hint != "check the id" {
		t.Fatalf("unexpected error envelope: %+v", env)
	}
}
