package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	tmp := t.TempDir()
	if err := os.Chdir(tmp); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", "")
	return tmp
}

func TestResolveGlobalOptionsPrecedence(t *testing.T) {
	tmp := chdirTemp(t)
	t.Setenv("EVENTGRID_SOURCE", "env.json")
	t.Setenv("EVENTGRID_OUTPUT", "jsonl")

	userCfg := filepath.Join(tmp, ".config", "eventgrid", "config.toml")
	if err := os.MkdirAll(filepath.Dir(userCfg), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(userCfg, []byte("source='user.json'\noutput='plain'\nweek_start='monday'\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmp, ".eventgrid.toml"), []byte("source='project.json'\nfields='event_id,left_fraction'\nmax_visible=4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	defaults := &globalOptions{Profile: "default", Source: "flag.json", SchemaVersion: "v1", JSON: true, WeekStart: "sunday", MaxVisible: 2}
	cmd := newTestCmd()
	if err := cmd.ParseFlags([]string{"--source", "flag.json", "--json"}); err != nil {
		t.Fatal(err)
	}

	resolved, err := resolveGlobalOptions(cmd, defaults)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Source != "flag.json" {
		t.Fatalf("expected flag source, got %q", resolved.Source)
	}
	if !resolved.JSON || resolved.JSONL || resolved.Plain {
		t.Fatalf("expected JSON mode from flag override, got json=%v jsonl=%v plain=%v", resolved.JSON, resolved.JSONL, resolved.Plain)
	}
	if resolved.Fields != "event_id,left_fraction" {
		t.Fatalf("expected fields from project config, got %q", resolved.Fields)
	}
	if resolved.WeekStart != "monday" {
		t.Fatalf("expected week start from user config, got %q", resolved.WeekStart)
	}
	if resolved.MaxVisible != 4 {
		t.Fatalf("expected max_visible from project config, got %d", resolved.MaxVisible)
	}
}

func TestResolveGlobalOptionsEnvOverridesFiles(t *testing.T) {
	tmp := chdirTemp(t)
	t.Setenv("EVENTGRID_SOURCE", "env.json")
	t.Setenv("EVENTGRID_TIMEOUT", "3s")
	if err := os.WriteFile(filepath.Join(tmp, ".eventgrid.toml"), []byte("source='project.json'\ntimeout='1m'\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	resolved, err := resolveGlobalOptions(newTestCmd(), &globalOptions{Profile: "default"})
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Source != "env.json" {
		t.Fatalf("expected env source, got %q", resolved.Source)
	}
	if resolved.Timeout != 3*time.Second {
		t.Fatalf("expected env timeout, got %s", resolved.Timeout)
	}
}

func TestResolveGlobalOptionsProfile(t *testing.T) {
	tmp := chdirTemp(t)
	t.Setenv("EVENTGRID_PROFILE", "work")

	cfg := "source='base.json'\nhour_height_px=48.0\n[profiles.work]\nsource='work.db'\ntz='Europe/Helsinki'\nmax_tiles_per_cluster=3\n"
	if err := os.WriteFile(filepath.Join(tmp, ".eventgrid.toml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	defaults := &globalOptions{Profile: "default", SchemaVersion: "v1", HourHeightPx: 60}
	resolved, err := resolveGlobalOptions(newTestCmd(), defaults)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Profile != "work" {
		t.Fatalf("expected work profile, got %q", resolved.Profile)
	}
	if resolved.Source != "work.db" || resolved.TZ != "Europe/Helsinki" {
		t.Fatalf("expected profile source and tz, got %q %q", resolved.Source, resolved.TZ)
	}
	if resolved.HourHeightPx != 48 || resolved.MaxTilesPerCluster != 3 {
		t.Fatalf("expected base hour height and profile cap, got %v %d", resolved.HourHeightPx, resolved.MaxTilesPerCluster)
	}
}

func TestResolveGlobalOptionsRejectsBadConfig(t *testing.T) {
	tmp := chdirTemp(t)
	if err := os.WriteFile(filepath.Join(tmp, ".eventgrid.toml"), []byte("source = [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := resolveGlobalOptions(newTestCmd(), &globalOptions{Profile: "default"}); err == nil {
		t.Fatalf("expected parse error for malformed project config")
	}
}

func TestResolveGlobalOptionsMissingExplicitConfig(t *testing.T) {
	tmp := chdirTemp(t)
	cmd := newTestCmd()
	missing := filepath.Join(tmp, "nope.toml")
	if err := cmd.ParseFlags([]string{"--config", missing}); err != nil {
		t.Fatal(err)
	}
	if _, err := resolveGlobalOptions(cmd, &globalOptions{Profile: "default", Config: missing}); err == nil {
		t.Fatalf("expected error for missing --config file")
	}
}

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("json", false, "")
	cmd.Flags().Bool("jsonl", false, "")
	cmd.Flags().Bool("plain", false, "")
	cmd.Flags().String("fields", "", "")
	cmd.Flags().Bool("quiet", false, "")
	cmd.Flags().Bool("verbose", false, "")
	cmd.Flags().String("profile", "default", "")
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("source", "", "")
	cmd.Flags().String("source-format", "", "")
	cmd.Flags().String("tz", "", "")
	cmd.Flags().String("week-start", "sunday", "")
	cmd.Flags().Float64("hour-height", 60, "")
	cmd.Flags().Float64("tile-gap", 0.015, "")
	cmd.Flags().Int("max-visible", 2, "")
	cmd.Flags().Int("max-tiles", 0, "")
	cmd.Flags().String("log-format", "text", "")
	cmd.Flags().Duration("timeout", 15*time.Second, "")
	cmd.Flags().String("schema-version", "v1", "")
	return cmd
}
