package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bamsammich/agcli/internal/event"
	"github.com/bamsammich/agcli/internal/filter"
	"github.com/bamsammich/agcli/internal/manifest"
	"github.com/bamsammich/agcli/internal/progress"
	"github.com/bamsammich/agcli/internal/stats"
)

// Options are the user-tunable knobs of a verify/repair run.
type Options struct {
	Ignore        []string
	VerifyThreads int
	RepairThreads int
	// BWLimit caps download throughput in bytes per second; 0 is unlimited.
	BWLimit    int64
	VerifyOnly bool
	Fast       bool
}

// DefaultThreads is the worker count used when none is configured.
const DefaultThreads = 4

// DefaultOptions returns Options with both pools at DefaultThreads.
func DefaultOptions() Options {
	return Options{VerifyThreads: DefaultThreads, RepairThreads: DefaultThreads}
}

// Validate rejects thread counts below one and negative limits.
func (o Options) Validate() error {
	if o.VerifyThreads < 1 {
		return fmt.Errorf("%w: verify threads must be at least 1, got %d", ErrInvalidConfig, o.VerifyThreads)
	}
	if o.RepairThreads < 1 {
		return fmt.Errorf("%w: repair threads must be at least 1, got %d", ErrInvalidConfig, o.RepairThreads)
	}
	if o.BWLimit < 0 {
		return fmt.Errorf("%w: bandwidth limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Source produces the manifest to verify against.
type Source interface {
	FetchManifest(ctx context.Context) ([]manifest.IntegrityFile, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]manifest.IntegrityFile, error)

func (f SourceFunc) FetchManifest(ctx context.Context) ([]manifest.IntegrityFile, error) {
	return f(ctx)
}

// Reporter receives user-facing messages. Multi-line messages use "\n".
type Reporter interface {
	Notice(msg string)
	Warn(msg string)
	Error(msg string)
}

// Config describes a verify/repair run.
type Config struct {
	Source   Source
	Fetcher  Fetcher
	Reporter Reporter
	// NewProgress returns the mux for a phase. Each phase gets its own.
	NewProgress func() *progress.Mux
	Stats       *stats.Collector
	Events      chan<- event.Event
	Root        string
	Options     Options
}

// State is a step of the run state machine.
type State int

const (
	Idle State = iota
	Fetching
	Filtering
	Verifying
	Collecting
	Repairing
	Reporting
	Finished
)

var stateNames = [...]string{
	Idle:       "Idle",
	Fetching:   "Fetching",
	Filtering:  "Filtering",
	Verifying:  "Verifying",
	Collecting: "Collecting",
	Repairing:  "Repairing",
	Reporting:  "Reporting",
	Finished:   "Done",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Outcome is how a run ended.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNothingToDo
	OutcomeFetchFailed
	OutcomeConfigMissing
	OutcomeInvalidConfig
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "Ok"
	case OutcomeNothingToDo:
		return "NothingToDo"
	case OutcomeFetchFailed:
		return "FetchFailed"
	case OutcomeConfigMissing:
		return "ConfigMissing"
	case OutcomeInvalidConfig:
		return "InvalidConfig"
	default:
		return "Unknown"
	}
}

// Result is the outcome of a run.
type Result struct {
	Err      error
	Damaged  []manifest.IntegrityFile
	Failures []Failure
	// Trace lists every state the run passed through, in order.
	Trace       []State
	Stats       stats.Snapshot
	Outcome     Outcome
	Interrupted bool
}

// run carries the mutable state of one Run call.
type run struct {
	cfg    Config
	rep    Reporter
	stats  *stats.Collector
	result Result
}

func (r *run) enter(s State) {
	r.result.Trace = append(r.result.Trace, s)
	slog.Debug("engine state", "state", s.String())
}

func (r *run) finish(o Outcome, err error) Result {
	r.enter(Finished)
	r.result.Outcome = o
	r.result.Err = err
	r.result.Stats = r.stats.Snapshot()
	emitEvent(r.cfg.Events, event.Event{Type: event.Done, Error: err})
	return r.result
}

func (r *run) progress() *progress.Mux {
	if r.cfg.NewProgress == nil {
		return nil
	}
	return r.cfg.NewProgress()
}

// Run fetches the manifest, verifies the installation under cfg.Root and,
// unless VerifyOnly is set, repairs every damaged file. Failures of single
// files never abort the run; they are reported and returned in Result.
func Run(ctx context.Context, cfg Config) Result {
	r := &run{cfg: cfg, rep: cfg.Reporter, stats: cfg.Stats}
	if r.rep == nil {
		r.rep = discardReporter{}
	}
	if r.stats == nil {
		r.stats = stats.NewCollector()
	}
	r.enter(Idle)

	if strings.TrimSpace(cfg.Root) == "" {
		r.rep.Error("You didn't specify the game path")
		return r.finish(OutcomeConfigMissing, ErrConfigMissing)
	}
	if err := cfg.Options.Validate(); err != nil {
		r.rep.Error(err.Error())
		return r.finish(OutcomeInvalidConfig, err)
	}

	r.enter(Fetching)
	r.rep.Notice("Fetching integrity files...")
	emitEvent(cfg.Events, event.Event{Type: event.FetchStarted})
	files, err := cfg.Source.FetchManifest(ctx)
	if err != nil {
		if !errors.Is(err, ErrManifestFetch) {
			err = fmt.Errorf("%w: %w", ErrManifestFetch, err)
		}
		r.rep.Error(fmt.Sprintf("Failed to fetch integrity files: %v", err))
		return r.finish(OutcomeFetchFailed, err)
	}
	emitEvent(cfg.Events, event.Event{Type: event.FetchComplete, Total: int64(len(files))})

	r.enter(Filtering)
	prep := Prepare(files, filter.NewIgnore(cfg.Options.Ignore...))
	r.stats.AddFilesIgnored(int64(prep.Ignored))
	emitEvent(cfg.Events, event.Event{Type: event.FilterComplete, Total: int64(len(prep.Files))})
	slog.Debug("manifest filtered",
		"kept", len(prep.Files), "ignored", prep.Ignored,
		"duplicates", prep.Duplicates, "invalid", prep.Invalid)
	if len(prep.Files) == 0 {
		r.rep.Warn("No files found to verify")
		return r.finish(OutcomeNothingToDo, nil)
	}

	total := manifest.TotalSize(prep.Files)
	r.stats.SetTotals(int64(len(prep.Files)), int64(total))

	r.enter(Verifying)
	threads := clampThreads(cfg.Options.VerifyThreads, len(prep.Files))
	r.rep.Notice(fmt.Sprintf("Verifying %d files (%s GB) in %d threads:",
		len(prep.Files), stats.GBString(total), threads))
	damaged := Verify(ctx, prep.Files, VerifyConfig{
		Root:     cfg.Root,
		Threads:  threads,
		Fast:     cfg.Options.Fast,
		Progress: r.progress(),
		Stats:    r.stats,
		Events:   cfg.Events,
	})

	r.enter(Collecting)
	r.result.Damaged = damaged
	if ctx.Err() != nil {
		r.result.Interrupted = true
		r.rep.Warn("Interrupted")
		return r.finish(OutcomeOK, ctx.Err())
	}
	if len(damaged) == 0 {
		return r.finish(OutcomeOK, nil)
	}
	r.rep.Warn(damageReport(damaged))
	if cfg.Options.VerifyOnly {
		return r.finish(OutcomeOK, nil)
	}

	r.enter(Repairing)
	threads = clampThreads(cfg.Options.RepairThreads, len(damaged))
	r.rep.Notice(fmt.Sprintf("Repairing %d files in %d threads:", len(damaged), threads))
	repCfg := RepairConfig{
		Root:     cfg.Root,
		Threads:  threads,
		Fetcher:  cfg.Fetcher,
		Progress: r.progress(),
		Stats:    r.stats,
		Events:   cfg.Events,
	}
	if cfg.Options.BWLimit > 0 {
		repCfg.Limiter = NewBWLimiter(cfg.Options.BWLimit)
	}
	failures := Repair(ctx, damaged, repCfg)

	r.enter(Reporting)
	r.result.Failures = failures
	for _, f := range failures {
		r.rep.Error(fmt.Sprintf("Failed to repair %s: %s", f.File.Path, f.Kind))
		slog.Debug("repair failure", "path", f.File.Path, "kind", f.Kind.String(), "error", f.Err)
	}
	if ctx.Err() != nil {
		r.result.Interrupted = true
		r.rep.Warn("Interrupted")
		return r.finish(OutcomeOK, ctx.Err())
	}
	return r.finish(OutcomeOK, nil)
}

func damageReport(damaged []manifest.IntegrityFile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d broken files", len(damaged))
	for _, f := range damaged {
		b.WriteString("\n- ")
		b.WriteString(f.Path)
	}
	return b.String()
}

type discardReporter struct{}

func (discardReporter) Notice(string) {}
func (discardReporter) Warn(string)   {}
func (discardReporter) Error(string)  {}
