package app

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/unihub/eventgrid/internal/calendar"
	"github.com/unihub/eventgrid/internal/contract"
	"github.com/unihub/eventgrid/internal/output"
)

type doctorResult struct {
	Ready       bool
	Degraded    bool
	ReasonCodes []string
	Fallbacks   map[string]float64
}

func newDoctorCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the event source, zone resolution and layout fallbacks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, rt, ro, err := buildContext(cmd, opts, "doctor")
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(ro)
			defer cancel()

			checks, derr := doctorWithTimeout(ctx, rt.src)
			checks = append(checks, contract.DoctorCheck{Name: "default_zone", Status: "ok", Message: rt.loc.String()})
			if derr == nil {
				res, lerr := loadWithTimeout(ctx, rt.src)
				if lerr != nil {
					derr = lerr
				} else {
					checks = append(checks, zoneChecks(rt, res.Events)...)
				}
			}

			fallbacks, merr := rt.metrics.FallbackCounts()
			if merr != nil {
				rt.log.Warn("metrics snapshot failed", "error", merr.Error())
			}
			res := doctorResult{
				Ready:       derr == nil && !hasStatus(checks, "fail"),
				Degraded:    hasStatus(checks, "warn"),
				ReasonCodes: deriveDegradedReasonCodes(checks, derr),
				Fallbacks:   fallbacks,
			}
			meta := map[string]any{
				"count":                 len(checks),
				"ready":                 res.Ready,
				"degraded":              res.Degraded,
				"degraded_reason_codes": res.ReasonCodes,
				"fallbacks":             res.Fallbacks,
				"source":                rt.src.Path(),
				"format":                string(rt.src.Format()),
			}
			if output.ResolveMode(p.Mode, p.Out) == output.ModePlain {
				_ = printDoctorPlain(p.Out, checks, res)
			} else {
				_ = successWithMeta(ctx, p, ro, checks, meta, nil)
			}
			if derr != nil {
				return WrapPrinted(6, derr)
			}
			if !res.Ready {
				return WrapPrinted(6, fmt.Errorf("doctor checks not ready"))
			}
			return nil
		},
	}
}

// zoneChecks resolves every distinct event zone and runs one resolver pass
// over the events, so fallbacks show up in the layout counters.
func zoneChecks(rt *session, events []calendar.EventInterval) []contract.DoctorCheck {
	zones := map[string]int{}
	for _, ev := range events {
		if ev.Zone != "" {
			zones[ev.Zone]++
		}
	}
	names := make([]string, 0, len(zones))
	for z := range zones {
		names = append(names, z)
	}
	sort.Strings(names)

	var bad []string
	for _, z := range names {
		if _, err := calendar.LoadZone(z); err != nil {
			bad = append(bad, z)
		}
	}
	checks := make([]contract.DoctorCheck, 0, 2)
	if len(bad) > 0 {
		checks = append(checks, contract.DoctorCheck{
			Name:    "event_zones",
			Status:  "warn",
			Message: fmt.Sprintf("unknown %s %s; affected events fall back to %s", english.PluralWord(len(bad), "zone", ""), strings.Join(bad, ", "), rt.loc),
		})
	} else {
		checks = append(checks, contract.DoctorCheck{
			Name:    "event_zones",
			Status:  "ok",
			Message: fmt.Sprintf("%s resolved", english.Plural(len(names), "zone", "")),
		})
	}

	done := rt.metrics.Track("doctor")
	rt.engine.SortForCell(events, rt.loc.String())
	done()
	issues := rt.issues.Issues()
	status := "ok"
	if len(issues) > 0 {
		status = "warn"
	}
	checks = append(checks, contract.DoctorCheck{
		Name:    "layout_inputs",
		Status:  status,
		Message: fmt.Sprintf("%s repaired out of %s", english.Plural(len(issues), "input", ""), english.Plural(len(events), "event", "")),
	})
	return checks
}

func hasStatus(checks []contract.DoctorCheck, status string) bool {
	for _, c := range checks {
		if strings.EqualFold(strings.TrimSpace(c.Status), status) {
			return true
		}
	}
	return false
}

func newCompletionCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion <bash|zsh|fish|powershell>",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := strings.ToLower(args[0])
			switch shell {
			case "bash":
				return root.GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return root.GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return root.GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return root.GenPowerShellCompletion(cmd.OutOrStdout())
			default:
				return Wrap(2, fmt.Errorf("unsupported shell: %s", shell))
			}
		},
	}
}

func deriveDegradedReasonCodes(checks []contract.DoctorCheck, derr error) []string {
	codeSet := map[string]struct{}{}
	for _, c := range checks {
		status := strings.ToLower(strings.TrimSpace(c.Status))
		if status == "" || status == "ok" || status == "pass" {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(c.Name))
		name = strings.ReplaceAll(name, " ", "_")
		name = strings.ReplaceAll(name, "-", "_")
		if name == "" {
			name = "unknown_check"
		}
		if strings.HasPrefix(name, "source_record_") {
			name = "source_record"
		}
		codeSet[name+"_"+status] = struct{}{}
	}
	if derr != nil {
		codeSet["doctor_error"] = struct{}{}
	}
	if len(codeSet) == 0 {
		return nil
	}
	out := make([]string, 0, len(codeSet))
	for code := range codeSet {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func printDoctorPlain(out io.Writer, checks []contract.DoctorCheck, res doctorResult) error {
	_, _ = fmt.Fprintf(out, "ready=%t degraded=%t checks=%d\n", res.Ready, res.Degraded, len(checks))
	if len(res.ReasonCodes) > 0 {
		_, _ = fmt.Fprintf(out, "reasons=%s\n", strings.Join(res.ReasonCodes, ","))
	}
	for _, c := range checks {
		_, _ = fmt.Fprintf(out, "[%s] %s: %s\n", c.Status, c.Name, c.Message)
	}
	kinds := make([]string, 0, len(res.Fallbacks))
	for k := range res.Fallbacks {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		_, _ = fmt.Fprintf(out, "fallback %s=%g\n", k, res.Fallbacks[k])
	}
	return nil
}
