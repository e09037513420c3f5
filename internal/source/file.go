package source

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize/english"

	"github.com/unihub/eventgrid/internal/contract"
)

// fileSource reads a JSON, YAML or iCalendar file in one go.
type fileSource struct {
	path   string
	format Format
	opts   Options
}

func (s *fileSource) Path() string   { return s.path }
func (s *fileSource) Format() Format { return s.format }

func (s *fileSource) Load(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s.decode(data)
}

func (s *fileSource) decode(data []byte) (Result, error) {
	switch s.format {
	case FormatJSON:
		records, err := decodeJSONRecords(data)
		if err != nil {
			return Result{}, fmt.Errorf("%w: parse %s: %v", ErrUnavailable, s.path, err)
		}
		return convertRecords(records), nil
	case FormatYAML:
		records, err := decodeYAMLRecords(data)
		if err != nil {
			return Result{}, fmt.Errorf("%w: parse %s: %v", ErrUnavailable, s.path, err)
		}
		return convertRecords(records), nil
	case FormatICS:
		res, err := parseICS(data, s.opts)
		if err != nil {
			return Result{}, fmt.Errorf("%w: parse %s: %v", ErrUnavailable, s.path, err)
		}
		return res, nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownFormat, s.format)
	}
}

func (s *fileSource) Doctor(ctx context.Context) ([]contract.DoctorCheck, error) {
	checks := []contract.DoctorCheck{}
	info, err := os.Stat(s.path)
	if err != nil {
		checks = append(checks, contract.DoctorCheck{Name: "source_file", Status: "fail", Message: err.Error()})
		return checks, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if info.IsDir() {
		msg := s.path + " is a directory"
		checks = append(checks, contract.DoctorCheck{Name: "source_file", Status: "fail", Message: msg})
		return checks, fmt.Errorf("%w: %s", ErrUnavailable, msg)
	}
	checks = append(checks, contract.DoctorCheck{Name: "source_file", Status: "ok", Message: s.path})
	return appendLoadCheck(ctx, s, checks)
}

// appendLoadCheck loads src and reports how many events and warnings it saw.
func appendLoadCheck(ctx context.Context, src Source, checks []contract.DoctorCheck) ([]contract.DoctorCheck, error) {
	res, err := src.Load(ctx)
	if err != nil {
		checks = append(checks, contract.DoctorCheck{Name: "source_parse", Status: "fail", Message: err.Error()})
		return checks, err
	}
	status := "ok"
	if len(res.Warnings) > 0 {
		status = "warn"
	}
	msg := fmt.Sprintf("%s loaded as %s, %s",
		english.Plural(len(res.Events), "event", ""),
		src.Format(),
		english.Plural(len(res.Warnings), "warning", ""),
	)
	checks = append(checks, contract.DoctorCheck{Name: "source_parse", Status: status, Message: msg})
	for i, w := range res.Warnings {
		checks = append(checks, contract.DoctorCheck{
			Name:    "source_record_" + strconv.Itoa(i+1),
			Status:  "warn",
			Message: w.String(),
		})
	}
	return checks, nil
}
