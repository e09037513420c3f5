// Package source loads event records from files and databases and turns
// them into calendar intervals for the layout engine.
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/unihub/eventgrid/internal/calendar"
	"github.com/unihub/eventgrid/internal/contract"
)

var (
	// ErrUnavailable wraps every failure to reach or read a source.
	ErrUnavailable = errors.New("event source unavailable")
	// ErrUnknownFormat is returned when no loader matches the source.
	ErrUnknownFormat = errors.New("unknown source format")
)

type Format string

const (
	FormatAuto   Format = ""
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatICS    Format = "ics"
	FormatSQLite Format = "sqlite"
)

// Warning describes a record that was repaired or skipped while loading.
type Warning struct {
	Record  string `json:"record"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Record == "" {
		return w.Message
	}
	return w.Record + ": " + w.Message
}

type Result struct {
	Events   []calendar.EventInterval
	Warnings []Warning
}

// Source is an external event store. Load returns every event it holds;
// filtering by date is the engine's job.
type Source interface {
	Path() string
	Format() Format
	Doctor(context.Context) ([]contract.DoctorCheck, error)
	Load(context.Context) (Result, error)
}

// Options tune how records are interpreted. DefaultZone places all-day
// calendar entries that carry no zone of their own.
type Options struct {
	DefaultZone string
}

// ParseFormat accepts the --source-format flag values.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "ics", "ical":
		return FormatICS, nil
	case "sqlite", "db":
		return FormatSQLite, nil
	default:
		return FormatAuto, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// DetectFormat guesses the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".ics", ".ical":
		return FormatICS, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return FormatAuto, fmt.Errorf("%w: cannot infer format of %s", ErrUnknownFormat, path)
	}
}

// Open returns the source at path. With FormatAuto the format comes from the
// extension. Open does not touch the file; Load and Doctor do.
func Open(path string, format Format, opts Options) (Source, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: no source configured", ErrUnavailable)
	}
	if format == FormatAuto {
		detected, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = detected
	}
	switch format {
	case FormatJSON, FormatYAML, FormatICS:
		return &fileSource{path: path, format: format, opts: opts}, nil
	case FormatSQLite:
		return &sqliteSource{path: path, opts: opts}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
