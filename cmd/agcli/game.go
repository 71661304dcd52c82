package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bamsammich/agcli/internal/engine"
	"github.com/bamsammich/agcli/internal/game"
	"github.com/bamsammich/agcli/internal/ui"
)

func newGameCmd(a *app) *cobra.Command {
	gameCmd := &cobra.Command{
		Use:   "game",
		Short: "Inspect and repair the game installation",
	}
	gameCmd.AddCommand(newGameInfoCmd(a))
	gameCmd.AddCommand(newGameRepairCmd(a))
	return gameCmd
}

func newGameInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Compare the installed game version with the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			root, err := a.gamePath(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			res, err := a.client(cfg).Resource(ctx)
			if err != nil {
				a.out.Error(fmt.Sprintf("Failed to fetch game info: %v", err))
				return &exitError{code: 1}
			}
			diff, err := game.Compare(root, res)
			if err != nil {
				a.out.Error(fmt.Sprintf("Failed to compare game versions: %v", err))
				return &exitError{code: 1}
			}
			a.printDiff(diff)
			return nil
		},
	}
}

func (a *app) printDiff(diff game.VersionDiff) {
	p := a.out
	switch diff.Kind {
	case game.NotInstalled:
		p.Warn(strings.Join([]string{
			"Game is not installed",
			"Latest version: " + p.Green(diff.Latest.String()),
		}, "\n"))
	case game.Outdated:
		p.Warn(strings.Join([]string{
			"Your game installation is too outdated",
			"Current version: " + p.Red(diff.Current.String()),
			"Latest version: " + p.Green(diff.Latest.String()),
		}, "\n"))
	case game.UpToDate:
		p.Notice("Latest version: " + p.Green(diff.Current.String()))
	case game.UpdateAvailable:
		p.Notice(strings.Join([]string{
			fmt.Sprintf("Game update available: %s -> %s",
				p.Yellow(diff.Current.String()), p.Green(diff.Latest.String())),
			"Update size: " + p.Cyan(ui.FormatGB(diff.Update.UnpackedSize())),
		}, "\n"))
	}
}

func newGameRepairCmd(a *app) *cobra.Command {
	var (
		flags        repairFlags
		manifestFile string
		baseURL      string
	)

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Verify installed files and re-download the damaged ones",
		Long: `Verify every file of the game against the integrity manifest of the
latest release and re-download the files whose size or checksum differ.

Thread counts, the ignore list, --fast and --bwlimit fall back to the
[repair] section of the config file when not given on the command line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}

			var source engine.Source = game.GameSource{Client: a.client(cfg)}
			if manifestFile != "" {
				if baseURL == "" {
					a.out.Error("--manifest requires --base-url")
					return &exitError{code: 2}
				}
				source = game.FileSource{Path: manifestFile, BaseURL: baseURL}
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return a.runRepair(ctx, cmd, cfg, &flags, source)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&manifestFile, "manifest", "", "read integrity files from a local pkg_version file (.zst allowed)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "download base URL for files listed in --manifest")
	return cmd
}

func newInfoCmd(a *app) *cobra.Command {
	var gameDir string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show installed and latest versions and voice packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if gameDir != "" {
				cfg.Paths.Game = gameDir
			}
			root, err := a.gamePath(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			installed := "?"
			if v, err := game.InstalledVersion(root); err == nil {
				installed = v.String()
			}
			latest := "?"
			res, err := a.client(cfg).Resource(ctx)
			if err != nil {
				a.out.Error(fmt.Sprintf("Failed to fetch game info: %v", err))
				return &exitError{code: 1}
			}
			if v, err := game.ParseVersion(res.Data.Game.Latest.Version); err == nil {
				latest = v.String()
			}

			fmt.Fprintf(a.stdout, " Installed version: %s\n", installed)
			fmt.Fprintf(a.stdout, " Latest version: %s\n", latest)
			fmt.Fprintln(a.stdout, "\n Voice packages:")
			for _, pack := range res.Data.Game.Latest.VoicePacks {
				locale, err := game.ParseLocale(pack.Language)
				if err != nil {
					continue
				}
				state := "available"
				if game.VoiceInstalled(root, locale) {
					state = "installed"
				}
				fmt.Fprintf(a.stdout, " - %s : %s\n", locale.Name(), state)
			}
			fmt.Fprintln(a.stdout)
			return nil
		},
	}

	addGameFlag(cmd, &gameDir)
	return cmd
}

// addGameFlag registers --game with its -g, -p and --path spellings.
func addGameFlag(cmd *cobra.Command, dst *string) {
	cmd.Flags().StringVarP(dst, "game", "g", "", "game installation path (overrides paths.game)")
	cmd.Flags().StringVarP(dst, "path", "p", "", "alias for --game")
	_ = cmd.Flags().MarkHidden("path")
}
