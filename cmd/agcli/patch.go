package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bamsammich/agcli/internal/config"
	"github.com/bamsammich/agcli/internal/game"
	"github.com/bamsammich/agcli/internal/patch"
)

func newPatchCmd(a *app) *cobra.Command {
	patchCmd := &cobra.Command{
		Use:   "patch",
		Short: "Sync, inspect, apply and revert the community patch",
	}
	patchCmd.AddCommand(newPatchSyncCmd(a))
	patchCmd.AddCommand(newPatchInfoCmd(a))
	patchCmd.AddCommand(newPatchApplyCmd(a))
	patchCmd.AddCommand(newPatchRevertCmd(a))
	return patchCmd
}

// patchRepo opens the local patch repository, reporting missing hosts.
func (a *app) patchRepo(cfg config.Config) (*patch.Repo, error) {
	repo, err := patch.New(cfg.Paths.Patch, cfg.Patch.Hosts)
	if errors.Is(err, patch.ErrPatchHostsMissing) {
		a.out.Error("Missing patch hosts")
		return nil, &exitError{code: 2}
	}
	return repo, err
}

// syncedPatch checks the repository is synced and resolves its status
// against the latest game version.
func (a *app) syncedPatch(ctx context.Context, cfg config.Config, repo *patch.Repo) (patch.Info, error) {
	synced, err := repo.IsSynced(ctx)
	if err != nil {
		a.out.Error(fmt.Sprintf("Failed to check patch folder: %v", err))
		return patch.Info{}, &exitError{code: 1}
	}
	if !synced {
		a.out.Warn(fmt.Sprintf("Patch is not synced. Run %s first", a.out.Yellow("patch sync")))
		return patch.Info{}, &exitError{code: 1}
	}
	return a.patchStatus(ctx, cfg, repo)
}

func (a *app) patchStatus(ctx context.Context, cfg config.Config, repo *patch.Repo) (patch.Info, error) {
	a.out.Notice("Fetching latest patch info...")
	res, err := a.client(cfg).Resource(ctx)
	if err != nil {
		a.out.Error(fmt.Sprintf("Failed to fetch latest patch info: %v", err))
		return patch.Info{}, &exitError{code: 1}
	}
	latest, err := game.ParseVersion(res.Data.Game.Latest.Version)
	if err != nil {
		a.out.Error(fmt.Sprintf("Failed to fetch latest patch info: %v", err))
		return patch.Info{}, &exitError{code: 1}
	}
	info, err := repo.Status(latest)
	if err != nil {
		a.out.Error(fmt.Sprintf("Failed to fetch latest patch info: %v", err))
		return patch.Info{}, &exitError{code: 1}
	}
	return info, nil
}

func newPatchSyncCmd(a *app) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Clone or update the local patch repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			repo, err := a.patchRepo(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			synced, err := repo.IsSynced(ctx)
			if err != nil {
				a.out.Error(fmt.Sprintf("Failed to check patch folder: %v", err))
				return &exitError{code: 1}
			}
			if synced {
				a.out.Notice("Patch is already synced")
				return nil
			}

			a.out.Notice("Syncing patch...")
			_, err = repo.SyncAny(ctx, recursive, func(host string, err error) {
				a.out.Warn(fmt.Sprintf("Failed to sync repo %s: %v", host, err))
			})
			if err != nil {
				a.out.Error("Failed to sync patch")
				return &exitError{code: 1}
			}
			a.out.Notice("Patch successfully synced")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "try every configured host until one succeeds")
	return cmd
}

func newPatchInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the patch status for the latest game version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			repo, err := a.patchRepo(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			info, err := a.syncedPatch(ctx, cfg, repo)
			if err != nil {
				return err
			}
			a.printPatchInfo(cfg, info)
			return nil
		},
	}
}

func (a *app) printPatchInfo(cfg config.Config, info patch.Info) {
	p := a.out
	switch info.Status {
	case patch.NotAvailable:
		p.Error("Patch is not available")
	case patch.Outdated:
		p.Warn(strings.Join([]string{
			"Patch is outdated",
			"Patch version: " + info.Version.String(),
			"Latest version: " + info.Latest.String(),
		}, "\n"))
	case patch.Preparation:
		p.Warn("Patch is in preparation state")
	case patch.Testing, patch.Available:
		stage := p.Green("stable")
		if info.Status == patch.Testing {
			stage = p.Yellow("testing")
		}
		applied := p.Red("not applied")
		if cfg.Paths.Game != "" && patch.IsApplied(cfg.Paths.Game) {
			applied = p.Green("applied")
		}
		p.Notice(strings.Join([]string{
			"Patch status: " + stage,
			"Status " + applied,
		}, "\n"))
	}
}

func newPatchApplyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply the patch to the game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			repo, err := a.patchRepo(cfg)
			if err != nil {
				return err
			}
			root, err := a.gamePath(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			info, err := a.syncedPatch(ctx, cfg, repo)
			if err != nil {
				return err
			}

			l, err := a.lockInstallation()
			if err != nil {
				return err
			}
			defer l.Release()

			a.out.Notice("Applying patch...")
			switch err := repo.Apply(ctx, root, info); {
			case errors.Is(err, patch.ErrAlreadyApplied):
				a.out.Notice("Patch is already applied")
			case errors.Is(err, patch.ErrNotApplicable):
				a.out.Warn("Patch can't be applied as it's not in stable nor testing stage")
				return &exitError{code: 1}
			case err != nil:
				a.out.Error(fmt.Sprintf("Failed to apply patch: %v", err))
				return &exitError{code: 1}
			default:
				a.out.Notice("Patch successfully applied")
			}
			return nil
		},
	}
}

func newPatchRevertCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "revert",
		Short: "Revert the patch from the game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			repo, err := a.patchRepo(cfg)
			if err != nil {
				return err
			}
			root, err := a.gamePath(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			info, err := a.syncedPatch(ctx, cfg, repo)
			if err != nil {
				return err
			}

			l, err := a.lockInstallation()
			if err != nil {
				return err
			}
			defer l.Release()

			switch err := repo.Revert(ctx, root, info, force); {
			case errors.Is(err, patch.ErrNotApplicable):
				a.out.Warn("Patch can't be reverted as it's not in stable nor testing stage")
				return &exitError{code: 1}
			case errors.Is(err, patch.ErrNotApplied):
				a.out.Warn(fmt.Sprintf("Patch is not applied. Use %s to revert anyway", a.out.Yellow("--force")))
				return &exitError{code: 1}
			case err != nil:
				a.out.Error(fmt.Sprintf("Failed to revert patch: %v", err))
				return &exitError{code: 1}
			}
			a.out.Notice("Patch reverted successfully")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "revert even if the patch doesn't look applied")
	return cmd
}
