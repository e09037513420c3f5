package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/unihub/eventgrid/internal/calendar"
	"github.com/unihub/eventgrid/internal/contract"
	"github.com/unihub/eventgrid/internal/logging"
	"github.com/unihub/eventgrid/internal/metrics"
	"github.com/unihub/eventgrid/internal/output"
	"github.com/unihub/eventgrid/internal/source"
)

var (
	sourceFactory  = openSource
	metricsFactory = metrics.Default
)

type globalOptions struct {
	JSON               bool
	JSONL              bool
	Plain              bool
	Fields             string
	Quiet              bool
	Verbose            bool
	Profile            string
	Config             string
	Source             string
	SourceFormat       string
	TZ                 string
	WeekStart          string
	HourHeightPx       float64
	TileGap            float64
	MaxVisible         int
	MaxTilesPerCluster int
	LogFormat          string
	Where              []string
	Timeout            time.Duration
	SchemaVersion      string
}

// session is everything a layout command needs once options are resolved.
type session struct {
	src     source.Source
	engine  *calendar.Engine
	memo    *calendar.Memo
	metrics *metrics.Metrics
	issues  *calendar.Collector
	log     *logging.Logger
	loc     *time.Location
	filter  []predicate
}

func Execute() int {
	cmd := NewRootCommand()
	err := cmd.Execute()
	if err != nil {
		renderTopLevelError(cmd, err)
	}
	return ExitCode(err)
}

func NewRootCommand() *cobra.Command {
	opts := &globalOptions{
		Profile:       "default",
		WeekStart:     "sunday",
		Timeout:       15 * time.Second,
		SchemaVersion: contract.SchemaVersion,
	}

	root := &cobra.Command{
		Use:           "eventgrid",
		Short:         "Lay out calendar events for day, week and month views",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       BuildVersionString(),
	}
	root.SetVersionTemplate("eventgrid {{.Version}}\n")

	root.PersistentFlags().BoolVar(&opts.JSON, "json", false, "Output structured JSON")
	root.PersistentFlags().BoolVar(&opts.JSONL, "jsonl", false, "Output newline-delimited JSON")
	root.PersistentFlags().BoolVar(&opts.Plain, "plain", false, "Output stable plain text")
	root.PersistentFlags().StringVar(&opts.Fields, "fields", "", "Projected fields, comma-separated")
	root.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Reduce success output")
	root.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose diagnostics")
	root.PersistentFlags().StringVar(&opts.Profile, "profile", "default", "Config profile")
	root.PersistentFlags().StringVar(&opts.Config, "config", "", "Config file path")
	root.PersistentFlags().StringVar(&opts.Source, "source", "", "Event source: .json, .yaml, .ics or .db file")
	root.PersistentFlags().StringVar(&opts.SourceFormat, "source-format", "", "Source format: json|yaml|ics|sqlite (default: from extension)")
	root.PersistentFlags().StringVar(&opts.TZ, "tz", "", "IANA timezone for events without one and for date selectors")
	root.PersistentFlags().StringVar(&opts.WeekStart, "week-start", "sunday", "First day of the displayed week")
	root.PersistentFlags().Float64Var(&opts.HourHeightPx, "hour-height", calendar.DefaultHourHeightPx, "Pixels per hour on the day grid")
	root.PersistentFlags().Float64Var(&opts.TileGap, "tile-gap", calendar.DefaultTileGapFraction, "Gap between overlapping tiles, as a fraction of the row")
	root.PersistentFlags().IntVar(&opts.MaxVisible, "max-visible", calendar.DefaultMaxVisiblePerCell, "Items shown per week cell before +N more")
	root.PersistentFlags().IntVar(&opts.MaxTilesPerCluster, "max-tiles", 0, "Tiles shown per overlap cluster before collapsing (0 = unlimited)")
	root.PersistentFlags().StringArrayVar(&opts.Where, "where", nil, "Filter events before layout, e.g. name~standup or duration>=30m (repeatable)")
	root.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "Diagnostic log format: text|json")
	root.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 15*time.Second, "Source load timeout (e.g. 10s, 1m, 0 to disable)")
	root.PersistentFlags().StringVar(&opts.SchemaVersion, "schema-version", contract.SchemaVersion, "Output schema version")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newDoctorCmd(opts))
	root.AddCommand(newActiveCmd(opts))
	root.AddCommand(newDayCmd(opts))
	root.AddCommand(newPositionCmd(opts))
	root.AddCommand(newSegmentCmd(opts))
	root.AddCommand(newWeekCmd(opts))
	root.AddCommand(newMonthCmd(opts))
	root.AddCommand(newViewCmd(opts))
	root.AddCommand(newCompletionCmd(root))

	return root
}

func buildContext(cmd *cobra.Command, opts *globalOptions, command string) (output.Printer, *session, *globalOptions, error) {
	resolved, err := resolveGlobalOptions(cmd, opts)
	if err != nil {
		return output.Printer{}, nil, nil, Wrap(2, err)
	}
	if conflictCount(resolved.JSON, resolved.JSONL, resolved.Plain) > 1 {
		return output.Printer{}, nil, nil, Wrap(2, errors.New("--json, --jsonl, and --plain are mutually exclusive"))
	}
	mode := output.ModeAuto
	if resolved.JSON {
		mode = output.ModeJSON
	} else if resolved.JSONL {
		mode = output.ModeJSONL
	} else if resolved.Plain {
		mode = output.ModePlain
	}

	printer := output.Printer{
		Mode:          mode,
		Command:       command,
		Fields:        splitCSV(resolved.Fields),
		Quiet:         resolved.Quiet,
		SchemaVersion: resolved.SchemaVersion,
		Out:           cmd.OutOrStdout(),
		Err:           cmd.ErrOrStderr(),
	}

	loc, err := resolveLocation(resolved.TZ)
	if err != nil {
		_ = printer.Error(contract.ErrInvalidUsage, err.Error(), "Use an IANA zone such as Europe/Helsinki or UTC")
		return printer, nil, nil, WrapPrinted(2, err)
	}

	level := "error"
	if resolved.Verbose {
		level = "debug"
	}
	log := logging.New(logging.Config{Level: level, Format: resolved.LogFormat, Output: printer.Err}).With("command", command)

	filter, err := parsePredicates(resolved.Where)
	if err != nil {
		_ = printer.Error(contract.ErrInvalidUsage, err.Error(), "Fields: id, name, zone, start, end, duration")
		return printer, nil, nil, WrapPrinted(2, err)
	}

	format, err := source.ParseFormat(resolved.SourceFormat)
	if err != nil {
		_ = printer.Error(contract.ErrInvalidUsage, err.Error(), "Use --source-format json|yaml|ics|sqlite")
		return printer, nil, nil, WrapPrinted(2, err)
	}
	src, err := sourceFactory(resolved.Source, format, source.Options{DefaultZone: loc.String()})
	if err != nil {
		code, exit := contract.ErrSourceUnavailable, 6
		if errors.Is(err, source.ErrUnknownFormat) {
			code, exit = contract.ErrInvalidUsage, 2
		}
		_ = printer.Error(code, err.Error(), "Set --source, EVENTGRID_SOURCE or `source` in .eventgrid.toml")
		return printer, nil, nil, WrapPrinted(exit, err)
	}

	issues := &calendar.Collector{}
	m := metricsFactory()
	reporter := calendar.OnceReporter(calendar.MultiReporter(issues, m, log.Reporter()))
	engine := calendar.NewEngine(layoutOptions(resolved), reporter)
	memo, err := calendar.NewMemo(engine, 0)
	if err != nil {
		return printer, nil, nil, Wrap(1, err)
	}

	log.Debug("resolved options",
		"source", src.Path(),
		"format", string(src.Format()),
		"mode", string(output.ResolveMode(mode, printer.Out)),
		"tz", loc.String(),
		"profile", resolved.Profile,
		"timeout", resolved.Timeout.String(),
	)
	return printer, &session{src: src, engine: engine, memo: memo, metrics: m, issues: issues, log: log, loc: loc, filter: filter}, resolved, nil
}

func layoutOptions(ro *globalOptions) calendar.Options {
	opts := calendar.DefaultOptions()
	opts.HourHeightPx = ro.HourHeightPx
	opts.TileGapFraction = ro.TileGap
	opts.MaxVisiblePerCell = ro.MaxVisible
	opts.MaxTilesPerCluster = ro.MaxTilesPerCluster
	return opts
}

func openSource(path string, format source.Format, opts source.Options) (source.Source, error) {
	return source.Open(path, format, opts)
}

func commandContext(ro *globalOptions) (context.Context, context.CancelFunc) {
	timing := &timingRecorder{calls: map[string]time.Duration{}}
	base := context.WithValue(context.Background(), timingContextKey{}, timing)
	if ro == nil || ro.Timeout <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, ro.Timeout)
}

type timeoutResult[T any] struct {
	val T
	err error
}

type timingContextKey struct{}

type timingRecorder struct {
	mu    sync.Mutex
	calls map[string]time.Duration
}

func (r *timingRecorder) add(name string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[name] += d
}

func commandTimings(ctx context.Context) map[string]string {
	rec, _ := ctx.Value(timingContextKey{}).(*timingRecorder)
	if rec == nil {
		return nil
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.calls) == 0 {
		return nil
	}
	keys := make([]string, 0, len(rec.calls))
	for k := range rec.calls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = rec.calls[k].String()
	}
	return out
}

func withTimeout[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	ch := make(chan timeoutResult[T], 1)
	go func() {
		v, err := fn()
		ch <- timeoutResult[T]{val: v, err: err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		return res.val, res.err
	}
}

func loadWithTimeout(ctx context.Context, src source.Source) (source.Result, error) {
	start := time.Now()
	v, err := withTimeout(ctx, func() (source.Result, error) {
		return src.Load(ctx)
	})
	err = annotateSourceError(ctx, "source.load", err)
	recordTiming(ctx, "source.load", time.Since(start))
	return v, err
}

func doctorWithTimeout(ctx context.Context, src source.Source) ([]contract.DoctorCheck, error) {
	start := time.Now()
	v, err := withTimeout(ctx, func() ([]contract.DoctorCheck, error) {
		return src.Doctor(ctx)
	})
	err = annotateSourceError(ctx, "source.doctor", err)
	recordTiming(ctx, "source.doctor", time.Since(start))
	return v, err
}

func recordTiming(ctx context.Context, name string, d time.Duration) {
	rec, _ := ctx.Value(timingContextKey{}).(*timingRecorder)
	if rec == nil {
		return
	}
	rec.add(name, d)
}

// loadEvents reads the source, reporting failures through the printer.
// Record warnings are returned for the success envelope.
func loadEvents(ctx context.Context, p output.Printer, rt *session) ([]calendar.EventInterval, []string, error) {
	res, err := loadWithTimeout(ctx, rt.src)
	if err != nil {
		if meta := sourceErrorMeta(err); meta != nil {
			rt.log.Error("source load interrupted", "phase", meta["phase"], "kind", meta["kind"])
		}
		_ = p.Error(contract.ErrSourceUnavailable, err.Error(), "Run `eventgrid doctor` to check the source")
		return nil, nil, WrapPrinted(6, err)
	}
	warnings := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		rt.log.Debug("source record repaired", "record", w.Record, "detail", w.Message)
		warnings = append(warnings, w.String())
	}
	events := applyPredicates(res.Events, rt.filter)
	if len(rt.filter) > 0 {
		rt.log.Debug("events filtered", "loaded", len(res.Events), "kept", len(events))
	}
	return events, warnings, nil
}

// layoutWarnings renders the engine diagnostics collected during a command,
// once per distinct issue.
func layoutWarnings(rt *session) []string {
	issues := rt.issues.Issues()
	seen := make(map[calendar.Issue]bool, len(issues))
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		if seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, fmt.Sprintf("%s: %s (%s)", i.EventID, i.Detail, i.Kind))
	}
	return out
}

func successWithMeta(ctx context.Context, p output.Printer, ro *globalOptions, data any, meta map[string]any, warnings []string) error {
	if ro != nil && ro.Verbose {
		timings := commandTimings(ctx)
		if len(timings) > 0 {
			if meta == nil {
				meta = map[string]any{}
			}
			meta["timings"] = timings
			_, _ = fmt.Fprintf(p.Err, "eventgrid: timings=%v\n", timings)
		}
	}
	return p.Success(data, meta, warnings)
}

func renderTopLevelError(cmd *cobra.Command, err error) {
	var appErr AppError
	if errors.As(err, &appErr) && appErr.Printed {
		return
	}
	if wantsStructuredErrorOutput(os.Args[1:]) {
		printer := output.Printer{
			Mode:          output.ModeJSON,
			SchemaVersion: contract.SchemaVersion,
			Err:           cmd.ErrOrStderr(),
		}
		_ = printer.Error(errorCodeForExit(ExitCode(err)), err.Error(), "")
		return
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", err.Error())
}

func wantsStructuredErrorOutput(args []string) bool {
	for _, arg := range args {
		switch {
		case arg == "--":
			return false
		case arg == "--json", arg == "--jsonl":
			return true
		case strings.HasPrefix(arg, "--json="), strings.HasPrefix(arg, "--jsonl="):
			return true
		}
	}
	return false
}

func errorCodeForExit(code int) contract.ErrorCode {
	switch code {
	case 2:
		return contract.ErrInvalidUsage
	case 4:
		return contract.ErrNotFound
	case 6:
		return contract.ErrSourceUnavailable
	default:
		return contract.ErrGeneric
	}
}

func resolveLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := calendar.LoadZone(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid --tz %q: %w", tz, err)
	}
	return loc, nil
}

func conflictCount(vals ...bool) int {
	total := 0
	for _, v := range vals {
		if v {
			total++
		}
	}
	return total
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		v := strings.TrimSpace(p)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
