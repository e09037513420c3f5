package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

const projectConfigName = ".eventgrid.toml"

// fileConfig mirrors the TOML layout. Pointer fields distinguish an unset
// number from an explicit zero.
type fileConfig struct {
	Source             string                `toml:"source"`
	SourceFormat       string                `toml:"source_format"`
	TZ                 string                `toml:"tz"`
	Output             string                `toml:"output"`
	Fields             string                `toml:"fields"`
	WeekStart          string                `toml:"week_start"`
	HourHeightPx       *float64              `toml:"hour_height_px"`
	TileGap            *float64              `toml:"tile_gap"`
	MaxVisible         *int                  `toml:"max_visible"`
	MaxTilesPerCluster *int                  `toml:"max_tiles_per_cluster"`
	Timeout            string                `toml:"timeout"`
	LogFormat          string                `toml:"log_format"`
	Profile            string                `toml:"profile"`
	Profiles           map[string]fileConfig `toml:"profiles"`
}

// resolveGlobalOptions layers user config, project config, an explicit
// config file, EVENTGRID_* variables and finally changed flags.
func resolveGlobalOptions(cmd *cobra.Command, defaults *globalOptions) (*globalOptions, error) {
	resolved := *defaults

	profile := firstNonEmpty(env("EVENTGRID_PROFILE"), defaults.Profile)
	if flagValueChanged(cmd, "profile") {
		profile = defaults.Profile
	}
	if profile == "" {
		profile = "default"
	}
	resolved.Profile = profile

	userPath := defaultUserConfigPath()
	configPath := firstNonEmpty(env("EVENTGRID_CONFIG"), userPath)
	explicit := env("EVENTGRID_CONFIG") != ""
	if flagValueChanged(cmd, "config") {
		configPath = defaults.Config
		explicit = true
	}

	for _, path := range []string{userPath, projectConfigName} {
		cfg, ok, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := applyFileConfig(&resolved, cfg, profile); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if configPath != "" && configPath != userPath && configPath != projectConfigName {
		cfg, ok, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if !ok && explicit {
			return nil, fmt.Errorf("config file %s not found", configPath)
		}
		if ok {
			if err := applyFileConfig(&resolved, cfg, profile); err != nil {
				return nil, fmt.Errorf("%s: %w", configPath, err)
			}
		}
	}

	if err := applyEnv(&resolved); err != nil {
		return nil, err
	}
	applyFlags(cmd, &resolved, defaults)

	if resolved.Config == "" {
		resolved.Config = configPath
	}
	return &resolved, nil
}

func applyFileConfig(dst *globalOptions, cfg fileConfig, profile string) error {
	if p, ok := cfg.Profiles[profile]; ok {
		cfg = mergeFileConfig(cfg, p)
	}
	if cfg.Source != "" {
		dst.Source = cfg.Source
	}
	if cfg.SourceFormat != "" {
		dst.SourceFormat = cfg.SourceFormat
	}
	if cfg.TZ != "" {
		dst.TZ = cfg.TZ
	}
	if cfg.Fields != "" {
		dst.Fields = cfg.Fields
	}
	if cfg.WeekStart != "" {
		dst.WeekStart = cfg.WeekStart
	}
	if cfg.LogFormat != "" {
		dst.LogFormat = cfg.LogFormat
	}
	if cfg.HourHeightPx != nil {
		dst.HourHeightPx = *cfg.HourHeightPx
	}
	if cfg.TileGap != nil {
		dst.TileGap = *cfg.TileGap
	}
	if cfg.MaxVisible != nil {
		dst.MaxVisible = *cfg.MaxVisible
	}
	if cfg.MaxTilesPerCluster != nil {
		dst.MaxTilesPerCluster = *cfg.MaxTilesPerCluster
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", cfg.Timeout, err)
		}
		dst.Timeout = d
	}
	if cfg.Output != "" {
		applyOutputMode(dst, cfg.Output)
	}
	return nil
}

func mergeFileConfig(base, overlay fileConfig) fileConfig {
	if overlay.Source != "" {
		base.Source = overlay.Source
	}
	if overlay.SourceFormat != "" {
		base.SourceFormat = overlay.SourceFormat
	}
	if overlay.TZ != "" {
		base.TZ = overlay.TZ
	}
	if overlay.Output != "" {
		base.Output = overlay.Output
	}
	if overlay.Fields != "" {
		base.Fields = overlay.Fields
	}
	if overlay.WeekStart != "" {
		base.WeekStart = overlay.WeekStart
	}
	if overlay.HourHeightPx != nil {
		base.HourHeightPx = overlay.HourHeightPx
	}
	if overlay.TileGap != nil {
		base.TileGap = overlay.TileGap
	}
	if overlay.MaxVisible != nil {
		base.MaxVisible = overlay.MaxVisible
	}
	if overlay.MaxTilesPerCluster != nil {
		base.MaxTilesPerCluster = overlay.MaxTilesPerCluster
	}
	if overlay.Timeout != "" {
		base.Timeout = overlay.Timeout
	}
	if overlay.LogFormat != "" {
		base.LogFormat = overlay.LogFormat
	}
	if overlay.Profile != "" {
		base.Profile = overlay.Profile
	}
	return base
}

func applyOutputMode(dst *globalOptions, mode string) {
	switch strings.ToLower(mode) {
	case "json":
		dst.JSON, dst.JSONL, dst.Plain = true, false, false
	case "jsonl":
		dst.JSON, dst.JSONL, dst.Plain = false, true, false
	case "plain":
		dst.JSON, dst.JSONL, dst.Plain = false, false, true
	}
}

func applyEnv(dst *globalOptions) error {
	if v := env("EVENTGRID_SOURCE"); v != "" {
		dst.Source = v
	}
	if v := env("EVENTGRID_SOURCE_FORMAT"); v != "" {
		dst.SourceFormat = v
	}
	if v := env("EVENTGRID_TIMEZONE"); v != "" {
		dst.TZ = v
	}
	if v := env("EVENTGRID_FIELDS"); v != "" {
		dst.Fields = v
	}
	if v := env("EVENTGRID_WEEK_START"); v != "" {
		dst.WeekStart = v
	}
	if v := env("EVENTGRID_LOG_FORMAT"); v != "" {
		dst.LogFormat = v
	}
	if v := env("EVENTGRID_OUTPUT"); v != "" {
		applyOutputMode(dst, v)
	}
	if v := env("EVENTGRID_MAX_VISIBLE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid EVENTGRID_MAX_VISIBLE %q: %w", v, err)
		}
		dst.MaxVisible = n
	}
	if v := env("EVENTGRID_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid EVENTGRID_TIMEOUT %q: %w", v, err)
		}
		dst.Timeout = d
	}
	return nil
}

func applyFlags(cmd *cobra.Command, dst, fromFlags *globalOptions) {
	copyIfChanged(cmd, "json", func() { dst.JSON = fromFlags.JSON })
	copyIfChanged(cmd, "jsonl", func() { dst.JSONL = fromFlags.JSONL })
	copyIfChanged(cmd, "plain", func() { dst.Plain = fromFlags.Plain })
	copyIfChanged(cmd, "fields", func() { dst.Fields = fromFlags.Fields })
	copyIfChanged(cmd, "quiet", func() { dst.Quiet = fromFlags.Quiet })
	copyIfChanged(cmd, "verbose", func() { dst.Verbose = fromFlags.Verbose })
	copyIfChanged(cmd, "profile", func() { dst.Profile = fromFlags.Profile })
	copyIfChanged(cmd, "config", func() { dst.Config = fromFlags.Config })
	copyIfChanged(cmd, "source", func() { dst.Source = fromFlags.Source })
	copyIfChanged(cmd, "source-format", func() { dst.SourceFormat = fromFlags.SourceFormat })
	copyIfChanged(cmd, "tz", func() { dst.TZ = fromFlags.TZ })
	copyIfChanged(cmd, "week-start", func() { dst.WeekStart = fromFlags.WeekStart })
	copyIfChanged(cmd, "hour-height", func() { dst.HourHeightPx = fromFlags.HourHeightPx })
	copyIfChanged(cmd, "tile-gap", func() { dst.TileGap = fromFlags.TileGap })
	copyIfChanged(cmd, "max-visible", func() { dst.MaxVisible = fromFlags.MaxVisible })
	copyIfChanged(cmd, "max-tiles", func() { dst.MaxTilesPerCluster = fromFlags.MaxTilesPerCluster })
	copyIfChanged(cmd, "log-format", func() { dst.LogFormat = fromFlags.LogFormat })
	copyIfChanged(cmd, "where", func() { dst.Where = fromFlags.Where })
	copyIfChanged(cmd, "timeout", func() { dst.Timeout = fromFlags.Timeout })
	copyIfChanged(cmd, "schema-version", func() { dst.SchemaVersion = fromFlags.SchemaVersion })

	// A single explicit output flag overrides env and config output mode.
	modeSet := 0
	for _, name := range []string{"json", "jsonl", "plain"} {
		if flagValueChanged(cmd, name) {
			modeSet++
		}
	}
	if modeSet == 1 {
		switch {
		case flagValueChanged(cmd, "json") && fromFlags.JSON:
			applyOutputMode(dst, "json")
		case flagValueChanged(cmd, "jsonl") && fromFlags.JSONL:
			applyOutputMode(dst, "jsonl")
		case flagValueChanged(cmd, "plain") && fromFlags.Plain:
			applyOutputMode(dst, "plain")
		}
	}
}

func copyIfChanged(cmd *cobra.Command, name string, fn func()) {
	if flagValueChanged(cmd, name) {
		fn()
	}
}

func flagValueChanged(cmd *cobra.Command, name string) bool {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := cmd.InheritedFlags().Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

// readConfigFile reports ok=false for a missing file and an error for a
// file that exists but does not parse.
func readConfigFile(path string) (fileConfig, bool, error) {
	if strings.TrimSpace(path) == "" {
		return fileConfig{}, false, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, false, nil
	}
	var cfg fileConfig
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return fileConfig{}, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, true, nil
}

func defaultUserConfigPath() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "eventgrid", "config.toml")
	}
	home := strings.TrimSpace(os.Getenv("HOME"))
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "eventgrid", "config.toml")
}

func env(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
