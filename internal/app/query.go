package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/unihub/eventgrid/internal/calendar"
)

// predicate is one --where clause such as name~standup or start>=2026-02-10T00:00:00Z.
type predicate struct {
	field string
	op    string
	value string
}

func parsePredicates(wheres []string) ([]predicate, error) {
	out := make([]predicate, 0, len(wheres))
	ops := []string{"==", "!=", "~", ">=", "<=", ">", "<"}
	for _, w := range wheres {
		s := strings.TrimSpace(w)
		if s == "" {
			continue
		}
		var op string
		var idx int
		for _, candidate := range ops {
			if i := strings.Index(s, candidate); i > 0 {
				op = candidate
				idx = i
				break
			}
		}
		if op == "" {
			return nil, fmt.Errorf("invalid where clause: %s", w)
		}
		field := strings.TrimSpace(s[:idx])
		val := strings.Trim(strings.TrimSpace(s[idx+len(op):]), "\"")
		if field == "" || val == "" {
			return nil, fmt.Errorf("invalid where clause: %s", w)
		}
		p := predicate{field: strings.ToLower(field), op: op, value: val}
		if err := validatePredicate(p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func validatePredicate(p predicate) error {
	switch p.field {
	case "id", "name", "zone":
		_, err := compareString("", p.op, p.value)
		return err
	case "start", "end":
		_, err := compareTime(time.Time{}, p.op, p.value)
		return err
	case "duration":
		_, err := compareDuration(0, p.op, p.value)
		return err
	default:
		return fmt.Errorf("unsupported field in --where: %s", p.field)
	}
}

// applyPredicates keeps the events matching every predicate, in input order.
func applyPredicates(items []calendar.EventInterval, preds []predicate) []calendar.EventInterval {
	if len(preds) == 0 {
		return items
	}
	filtered := make([]calendar.EventInterval, 0, len(items))
	for _, e := range items {
		if matchesAll(e, preds) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func matchesAll(e calendar.EventInterval, preds []predicate) bool {
	for _, p := range preds {
		if !matchesOne(e, p) {
			return false
		}
	}
	return true
}

// matchesOne assumes p passed validatePredicate.
func matchesOne(e calendar.EventInterval, p predicate) bool {
	var ok bool
	switch p.field {
	case "id":
		ok, _ = compareString(e.ID, p.op, p.value)
	case "name":
		ok, _ = compareString(e.DisplayName, p.op, p.value)
	case "zone":
		ok, _ = compareString(e.Zone, p.op, p.value)
	case "start":
		ok, _ = compareTime(e.Start, p.op, p.value)
	case "end":
		ok, _ = compareTime(e.End, p.op, p.value)
	case "duration":
		ok, _ = compareDuration(e.End.Sub(e.Start), p.op, p.value)
	}
	return ok
}

func compareString(actual, op, expected string) (bool, error) {
	a := strings.ToLower(actual)
	e := strings.ToLower(expected)
	switch op {
	case "==":
		return a == e, nil
	case "!=":
		return a != e, nil
	case "~":
		return strings.Contains(a, e), nil
	default:
		return false, fmt.Errorf("operator %s not supported for string fields", op)
	}
}

func compareTime(actual time.Time, op, expected string) (bool, error) {
	parsed, err := time.Parse(time.RFC3339, expected)
	if err != nil {
		return false, fmt.Errorf("time predicate expects RFC3339 value, got %q", expected)
	}
	return compareOrdered(actual.Compare(parsed), op, "time")
}

// compareDuration accepts Go durations (90m, 1h30m) or a bare number of minutes.
func compareDuration(actual time.Duration, op, expected string) (bool, error) {
	want, err := time.ParseDuration(expected)
	if err != nil {
		mins, nerr := strconv.ParseFloat(expected, 64)
		if nerr != nil {
			return false, fmt.Errorf("duration predicate expects 90m or minutes, got %q", expected)
		}
		want = time.Duration(mins * float64(time.Minute))
	}
	var cmp int
	switch {
	case actual < want:
		cmp = -1
	case actual > want:
		cmp = 1
	}
	return compareOrdered(cmp, op, "duration")
}

func compareOrdered(cmp int, op, kind string) (bool, error) {
	switch op {
	case "==":
		return cmp == 0, nil
	case "!=":
		return cmp != 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	default:
		return false, fmt.Errorf("operator %s not supported for %s fields", op, kind)
	}
}
