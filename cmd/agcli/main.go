package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bamsammich/agcli/internal/config"
	"github.com/bamsammich/agcli/internal/engine"
	"github.com/bamsammich/agcli/internal/game"
	"github.com/bamsammich/agcli/internal/lock"
	"github.com/bamsammich/agcli/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// app carries everything the subcommands share: persistent flags, the
// loaded config and the output sinks.
type app struct {
	stdout    io.Writer
	stderr    io.Writer
	out       *ui.Printer
	logger    *slog.Logger
	logCloser io.Closer
	cfg       *config.Config
	cfgPath   string
	logFile   string
	verbose   bool
	quiet     bool
}

func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, out: ui.NewPrinter(stderr)}
	defer a.close()

	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(normalizeArgs(args))
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		a.out.Error(err.Error())
		return 2
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	var showVersion bool

	rootCmd := &cobra.Command{
		Use:           "agcli",
		Short:         "Manage a game installation: verify, repair, voice packages, patch and launch",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setupLogging()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Fprintf(a.stdout, "agcli %s\n", version)
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	rootCmd.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default: $XDG_CONFIG_HOME/agcli/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "verbose diagnostics")
	rootCmd.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "suppress progress and diagnostics except errors")
	rootCmd.PersistentFlags().StringVar(&a.logFile, "log", "", "write structured JSON log to FILE")

	rootCmd.AddCommand(newInfoCmd(a))
	rootCmd.AddCommand(newGameCmd(a))
	rootCmd.AddCommand(newVoiceCmd(a))
	rootCmd.AddCommand(newPatchCmd(a))
	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newDocsCmd())

	return rootCmd
}

func (a *app) setupLogging() error {
	logLevel := slog.LevelWarn
	if a.verbose {
		logLevel = slog.LevelDebug
	} else if a.quiet {
		logLevel = slog.LevelError
	}
	textHandler := slog.NewTextHandler(a.stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	var logHandler slog.Handler = textHandler
	if a.logFile != "" {
		lf, err := os.Create(a.logFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logCloser = lf
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	a.logger = slog.New(logHandler).With("run", uuid.NewString())
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) close() {
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
}

// config loads the config file once per invocation.
func (a *app) config() (config.Config, error) {
	if a.cfg != nil {
		return *a.cfg, nil
	}
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		a.out.Error(fmt.Sprintf("Failed to load config: %v", err))
		return config.Config{}, &exitError{code: 2}
	}
	a.cfg = &cfg
	return cfg, nil
}

func (a *app) configPath() string {
	if a.cfgPath != "" {
		return a.cfgPath
	}
	return config.Path()
}

// gamePath returns the configured installation root, printing the usual
// complaint when it is empty.
func (a *app) gamePath(cfg config.Config) (string, error) {
	if strings.TrimSpace(cfg.Paths.Game) == "" {
		a.out.Error("You didn't specify the game path")
		return "", &exitError{code: 2}
	}
	return cfg.Paths.Game, nil
}

func (a *app) client(cfg config.Config) *game.Client {
	api := cfg.Launcher.API
	if api == "" {
		api = config.DefaultLauncherAPI
	}
	return game.NewClient(api)
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// lockInstallation takes the single-writer lock for commands that modify
// the installation.
func (a *app) lockInstallation() (*lock.Lock, error) {
	l, err := lock.Acquire(config.StateDir())
	if errors.Is(err, lock.ErrLocked) {
		a.out.Error("Another agcli instance is already modifying the game")
		return nil, &exitError{code: 2}
	}
	if err != nil {
		return nil, err
	}
	slog.Debug("installation locked", "path", l.Path())
	return l, nil
}

// reporter adapts the printer to the engine, dropping notices in quiet mode.
func (a *app) reporter() engine.Reporter {
	if a.quiet {
		return quietReporter{a.out}
	}
	return a.out
}

type quietReporter struct{ *ui.Printer }

func (quietReporter) Notice(string) {}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
