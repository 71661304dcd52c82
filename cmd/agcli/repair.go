package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/agcli/internal/config"
	"github.com/bamsammich/agcli/internal/engine"
	"github.com/bamsammich/agcli/internal/event"
	"github.com/bamsammich/agcli/internal/filter"
	"github.com/bamsammich/agcli/internal/progress"
	"github.com/bamsammich/agcli/internal/stats"
	"github.com/bamsammich/agcli/internal/ui"
)

// longAliases maps the two-letter single-dash spellings to their long flags.
// pflag only knows one-letter shorthands, so these are rewritten before
// parsing.
var longAliases = map[string]string{
	"-vt": "--verify-threads",
	"-rt": "--repair-threads",
}

// normalizeArgs rewrites -vt, -rt and -i= into long flags. Everything after
// "--" is left alone.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		name, value, hasValue := strings.Cut(arg, "=")
		if long, ok := longAliases[name]; ok {
			if hasValue {
				long += "=" + value
			}
			out = append(out, long)
			continue
		}
		if hasValue && name == "-i" {
			out = append(out, "--ignore="+value)
			continue
		}
		out = append(out, arg)
	}
	return out
}

// ignoreFlag accumulates comma-separated --ignore values across repeats.
type ignoreFlag struct {
	patterns *[]string
}

func (f ignoreFlag) String() string { return strings.Join(*f.patterns, ",") }
func (ignoreFlag) Type() string     { return "strings" }

func (f ignoreFlag) Set(val string) error {
	*f.patterns = append(*f.patterns, filter.ParseIgnoreList(val)...)
	return nil
}

type repairFlags struct {
	bwLimit       string
	ignore        []string
	threads       int
	verifyThreads int
	repairThreads int
	verifyOnly    bool
	fast          bool

	// set records which thread counts came from the command line or the
	// config file; the rest keep engine.DefaultThreads.
	threadsSet       bool
	verifyThreadsSet bool
	repairThreadsSet bool
}

func (f *repairFlags) register(fs *pflag.FlagSet) {
	fs.IntVarP(&f.threads, "threads", "t", engine.DefaultThreads, "threads for both verification and repair")
	fs.IntVar(&f.verifyThreads, "verify-threads", engine.DefaultThreads, "verification threads (alias -vt)")
	fs.IntVar(&f.repairThreads, "repair-threads", engine.DefaultThreads, "repair threads (alias -rt)")
	fs.VarP(ignoreFlag{patterns: &f.ignore}, "ignore", "i", "comma-separated, case-insensitive path substrings to skip (alias --skip)")
	fs.BoolVarP(&f.verifyOnly, "verify", "v", false, "only verify, don't repair")
	fs.BoolVarP(&f.fast, "fast", "f", false, "compare file sizes only")
	fs.StringVar(&f.bwLimit, "bwlimit", "", "download rate limit in bytes per second (e.g. 10M, 5MB/s)")

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "skip" {
			name = "ignore"
		}
		return pflag.NormalizedName(name)
	})
}

// applyConfigDefaults applies [repair] defaults for flags not explicitly set
// on the CLI.
func applyConfigDefaults(cmd *cobra.Command, defaults config.RepairConfig, f *repairFlags) {
	flags := cmd.Flags()
	f.threadsSet = flags.Changed("threads")
	f.verifyThreadsSet = flags.Changed("verify-threads")
	f.repairThreadsSet = flags.Changed("repair-threads")

	if !f.threadsSet && defaults.Threads != nil {
		f.threads = *defaults.Threads
		f.threadsSet = true
	}
	// An explicit --threads outranks the per-phase config defaults.
	cliThreads := flags.Changed("threads")
	if !f.verifyThreadsSet && !cliThreads && defaults.VerifyThreads != nil {
		f.verifyThreads = *defaults.VerifyThreads
		f.verifyThreadsSet = true
	}
	if !f.repairThreadsSet && !cliThreads && defaults.RepairThreads != nil {
		f.repairThreads = *defaults.RepairThreads
		f.repairThreadsSet = true
	}
	if !flags.Changed("ignore") && len(defaults.Ignore) > 0 {
		f.ignore = append([]string(nil), defaults.Ignore...)
	}
	if !flags.Changed("fast") && defaults.Fast != nil {
		f.fast = *defaults.Fast
	}
	if !flags.Changed("bwlimit") && defaults.BWLimit != nil {
		f.bwLimit = *defaults.BWLimit
	}
}

// options resolves the flags into engine options. The per-phase counts win
// over --threads.
func (f *repairFlags) options() (engine.Options, error) {
	opts := engine.DefaultOptions()
	if f.threadsSet {
		opts.VerifyThreads = f.threads
		opts.RepairThreads = f.threads
	}
	if f.verifyThreadsSet {
		opts.VerifyThreads = f.verifyThreads
	}
	if f.repairThreadsSet {
		opts.RepairThreads = f.repairThreads
	}
	opts.Ignore = f.ignore
	opts.VerifyOnly = f.verifyOnly
	opts.Fast = f.fast

	if f.bwLimit != "" {
		n, err := parseBWLimit(f.bwLimit)
		if err != nil {
			return opts, fmt.Errorf("%w: invalid --bwlimit: %w", engine.ErrInvalidConfig, err)
		}
		opts.BWLimit = n
	}
	return opts, nil
}

// runRepair drives one engine run and maps its outcome to an exit code.
func (a *app) runRepair(
	ctx context.Context,
	cmd *cobra.Command,
	cfg config.Config,
	f *repairFlags,
	source engine.Source,
) error {
	applyConfigDefaults(cmd, cfg.Repair, f)
	opts, err := f.options()
	if err != nil {
		a.out.Error(err.Error())
		return &exitError{code: 2}
	}

	if !opts.VerifyOnly {
		l, err := a.lockInstallation()
		if err != nil {
			return err
		}
		defer l.Release()
	}

	collector := stats.NewCollector()
	engineCfg := engine.Config{
		Source:   source,
		Fetcher:  a.client(cfg),
		Reporter: a.reporter(),
		Stats:    collector,
		Root:     cfg.Paths.Game,
		Options:  opts,
		NewProgress: func() *progress.Mux {
			if a.quiet {
				return progress.NewWithOptions(progress.Options{})
			}
			return progress.New(a.stderr)
		},
	}

	// With --log, engine events are written as structured records.
	var wg sync.WaitGroup
	if a.logFile != "" {
		events := make(chan event.Event, 256)
		engineCfg.Events = events
		wg.Add(1)
		go func() {
			defer wg.Done()
			ui.LogEvents(events, a.logger)
		}()
		defer func() {
			close(events)
			wg.Wait()
		}()
	}

	slog.Debug("starting run",
		"root", engineCfg.Root,
		"verify_threads", opts.VerifyThreads,
		"repair_threads", opts.RepairThreads,
		"ignore", opts.Ignore,
		"fast", opts.Fast,
		"verify_only", opts.VerifyOnly,
		"bwlimit", opts.BWLimit,
	)

	result := engine.Run(ctx, engineCfg)

	if result.Interrupted {
		if n := engine.CleanupTmpFiles(); n > 0 {
			slog.Debug("removed partial downloads", "count", n)
		}
		return &exitError{code: 130}
	}

	switch result.Outcome {
	case engine.OutcomeFetchFailed:
		return &exitError{code: 1}
	case engine.OutcomeConfigMissing, engine.OutcomeInvalidConfig:
		return &exitError{code: 2}
	}

	if !a.quiet && result.Outcome == engine.OutcomeOK {
		fmt.Fprintln(a.stderr, ui.CompletionSummary(result.Stats))
	}
	return nil
}
