package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bamsammich/agcli/internal/game"
	"github.com/bamsammich/agcli/internal/progress"
	"github.com/bamsammich/agcli/internal/ui"
)

func newVoiceCmd(a *app) *cobra.Command {
	voiceCmd := &cobra.Command{
		Use:   "voice",
		Short: "List, download and repair voice packages",
	}
	voiceCmd.AddCommand(newVoiceInfoCmd(a))
	voiceCmd.AddCommand(newVoiceDownloadCmd(a))
	voiceCmd.AddCommand(newVoiceRepairCmd(a))
	return voiceCmd
}

func newVoiceInfoCmd(a *app) *cobra.Command {
	var gameDir string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "List installed and available voice packages",
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

			res, err := a.client(cfg).Resource(ctx)
			if err != nil {
				a.out.Error(fmt.Sprintf("Failed to fetch voice packages: %v", err))
				return &exitError{code: 1}
			}
			latest := res.Data.Game.Latest
			installedVersion := "?"
			if v, err := game.InstalledVersion(root); err == nil {
				installedVersion = v.String()
			}
			if latestVersion, err := game.ParseVersion(latest.Version); err == nil &&
				installedVersion != latestVersion.String() {
				installedVersion = a.out.Red(installedVersion)
			}

			var rows [][]string
			for _, l := range game.InstalledLocales(root) {
				size, err := game.VoiceSize(root, l)
				if err != nil {
					slog.Debug("voice size", "locale", l.Code(), "error", err)
				}
				rows = append(rows, []string{
					a.out.Green("[X]"),
					a.out.Green(l.Name()),
					ui.FormatGB(size),
					installedVersion,
				})
			}
			for _, l := range game.Locales() {
				if game.VoiceInstalled(root, l) {
					continue
				}
				pack, ok := latest.VoicePack(l)
				if !ok {
					continue
				}
				rows = append(rows, []string{
					"[ ]",
					l.Name(),
					ui.FormatGB(pack.UnpackedSize()),
					latest.Version,
				})
			}

			fmt.Fprintln(a.stdout, ui.RenderTable(
				[]string{" I", "Name", "Size", "Version"},
				rows,
				[]ui.Align{ui.AlignLeft, ui.AlignLeft, ui.AlignRight, ui.AlignLeft},
			))
			return nil
		},
	}

	addGameFlag(cmd, &gameDir)
	return cmd
}

// parseLocales resolves arguments to locales, warning about unknown names
// and dropping duplicates.
func (a *app) parseLocales(args []string) []game.Locale {
	seen := make(map[game.Locale]bool, len(args))
	var out []game.Locale
	for _, arg := range args {
		l, err := game.ParseLocale(arg)
		if err != nil {
			a.out.Warn(fmt.Sprintf("Failed to find %q language", arg))
			continue
		}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

func newVoiceDownloadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "download <locale>...",
		Short: "Download and unpack voice packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			client := a.client(cfg)
			res, err := client.Resource(ctx)
			if err != nil {
				a.out.Error(fmt.Sprintf("Failed to fetch voice packages: %v", err))
				return &exitError{code: 1}
			}

			var packages []game.VoiceInstall
			for _, l := range a.parseLocales(args) {
				if game.VoiceInstalled(root, l) {
					a.out.Notice(fmt.Sprintf("%s package is already installed", l.Name()))
					continue
				}
				pack, ok := res.Data.Game.Latest.VoicePack(l)
				if !ok {
					a.out.Warn(fmt.Sprintf("Failed to get %s package: not listed by the launcher", l.Name()))
					continue
				}
				packages = append(packages, game.VoiceInstall{Locale: l, Pack: pack})
			}
			if len(packages) == 0 {
				return nil
			}

			l, err := a.lockInstallation()
			if err != nil {
				return err
			}
			defer l.Release()

			mux := progress.NewWithOptions(progress.Options{})
			if !a.quiet {
				mux = progress.New(a.stderr)
			}
			if err := game.InstallVoices(ctx, client, root, packages, mux); err != nil {
				a.out.Error(fmt.Sprintf("Failed to install voice packages: %v", err))
				return &exitError{code: 1}
			}
			a.out.Notice("Voice packages installed")
			return nil
		},
	}
}

func newVoiceRepairCmd(a *app) *cobra.Command {
	var flags repairFlags

	cmd := &cobra.Command{
		Use:   "repair <locale>...",
		Short: "Verify and repair installed voice packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}

			var locales []game.Locale
			var names []string
			for _, l := range a.parseLocales(args) {
				if cfg.Paths.Game != "" && !game.VoiceInstalled(cfg.Paths.Game, l) {
					a.out.Warn(fmt.Sprintf("%s package is not installed", l.Name()))
					continue
				}
				locales = append(locales, l)
				names = append(names, l.Name())
			}
			if len(names) > 0 {
				a.out.Notice("Verifying locales: " + strings.Join(names, ", "))
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			source := game.VoiceSource{Client: a.client(cfg), Locales: locales}
			return a.runRepair(ctx, cmd, cfg, &flags, source)
		},
	}

	flags.register(cmd.Flags())
	return cmd
}
