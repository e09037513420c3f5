package app

import (
	"bytes"
	"strings"
	"testing"
)

func TestBuildVersionString(t *testing.T) {
	SetBuildInfo("v1.2.3", "abc123", "2026-02-16T12:00:00Z")
	got := BuildVersionString()
	want := "v1.2.3 (abc123) 2026-02-16T12:00:00Z"
	if got != want {
		t.Fatalf("BuildVersionString() = %q, want %q", got, want)
	}
}

func TestVersionCommand(t *testing.T) {
	SetBuildInfo("v0.4.0", "deadbeef", "2026-03-01T00:00:00Z")
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--detailed"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || lines[0] != "eventgrid v0.4.0 (deadbeef) 2026-03-01T00:00:00Z" {
		t.Fatalf("unexpected version output: %q", out.String())
	}
	if !strings.HasPrefix(lines[1], "go ") {
		t.Fatalf("expected toolchain line, got %q", lines[1])
	}
}
