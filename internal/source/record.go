package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/unihub/eventgrid/internal/calendar"
)

// idNamespace seeds the name-based ids given to records without one.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://unihub.app/eventgrid/events"))

var errMissingValue = errors.New("missing value")

// rawValue keeps a scalar as text so that bad timestamps surface as record
// warnings instead of failing the whole decode. Numbers keep their literal.
type rawValue string

func (r *rawValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*r = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = rawValue(s)
		return nil
	}
	if b[0] == '{' || b[0] == '[' {
		return fmt.Errorf("expected a scalar, got %s", b)
	}
	*r = rawValue(b)
	return nil
}

func (r *rawValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*r = ""
		return nil
	}
	*r = rawValue(node.Value)
	return nil
}

// record is the event summary shape served by the events API.
type record struct {
	ID       rawValue `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Start    rawValue `json:"eventStartDateUtc" yaml:"eventStartDateUtc"`
	End      rawValue `json:"eventEndDateUtc" yaml:"eventEndDateUtc"`
	Timezone string   `json:"eventTimezone" yaml:"eventTimezone"`
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseInstant reads an ISO-8601 instant or a numeric epoch. Epoch values
// are seconds, possibly fractional; values above 1e12 are milliseconds.
// Timestamps without an offset are UTC.
func parseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errMissingValue
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, fmt.Errorf("unsupported timestamp %q", s)
	}
	if math.Abs(f) >= 1e12 {
		ms := int64(math.Round(f))
		return time.UnixMilli(ms).UTC(), nil
	}
	sec := math.Floor(f)
	nsec := math.Round((f - sec) * 1e9)
	return time.Unix(int64(sec), int64(nsec)).UTC(), nil
}

// stableID derives a deterministic id for records that lack one.
func stableID(name string, start time.Time) string {
	key := name + "\x00" + start.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

// toInterval converts r. A record with one unreadable instant becomes a
// zero-length event at the other; with neither it is skipped. Both cases
// produce a warning.
func (r record) toInterval(label string) (calendar.EventInterval, []Warning, bool) {
	id := strings.TrimSpace(string(r.ID))
	if id != "" {
		label = id
	}
	var warnings []Warning

	start, startErr := parseInstant(string(r.Start))
	end, endErr := parseInstant(string(r.End))
	switch {
	case startErr != nil && endErr != nil:
		return calendar.EventInterval{}, []Warning{{
			Record:  label,
			Message: fmt.Sprintf("skipped: start %v; end %v", startErr, endErr),
		}}, false
	case startErr != nil:
		warnings = append(warnings, Warning{Record: label, Message: fmt.Sprintf("start %v; using end as a zero-length event", startErr)})
		start = end
	case endErr != nil:
		warnings = append(warnings, Warning{Record: label, Message: fmt.Sprintf("end %v; using start as a zero-length event", endErr)})
		end = start
	}

	if id == "" {
		id = stableID(r.Name, start)
	}
	return calendar.EventInterval{
		ID:          id,
		DisplayName: strings.TrimSpace(r.Name),
		Start:       start,
		End:         end,
		Zone:        strings.TrimSpace(r.Timezone),
	}, warnings, true
}

func convertRecords(records []record) Result {
	out := Result{Events: make([]calendar.EventInterval, 0, len(records))}
	for i, r := range records {
		ev, warnings, ok := r.toInterval("record " + strconv.Itoa(i+1))
		out.Warnings = append(out.Warnings, warnings...)
		if ok {
			out.Events = append(out.Events, ev)
		}
	}
	return out
}

func decodeJSONRecords(data []byte) ([]record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '{' {
		var doc struct {
			Events []record `json:"events"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc.Events, nil
	}
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func decodeYAMLRecords(data []byte) ([]record, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	doc := root.Content[0]
	switch doc.Kind {
	case yaml.MappingNode:
		var wrapped struct {
			Events []record `yaml:"events"`
		}
		if err := doc.Decode(&wrapped); err != nil {
			return nil, err
		}
		return wrapped.Events, nil
	case yaml.SequenceNode:
		var records []record
		if err := doc.Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	default:
		return nil, fmt.Errorf("line %d: expected a list of events", doc.Line)
	}
}
