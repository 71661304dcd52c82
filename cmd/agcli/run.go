package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bamsammich/agcli/internal/launch"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the game through wine",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			root, err := a.gamePath(cfg)
			if err != nil {
				return err
			}

			proc, err := launch.Start(launch.Options{
				GameDir:    root,
				Executable: cfg.Wine.Executable,
				Prefix:     cfg.Wine.Prefix,
				Env:        cfg.Wine.Environment,
			})
			if err != nil {
				a.out.Error(fmt.Sprintf("Game running error: %v", err))
				return &exitError{code: 1}
			}
			slog.Debug("game started", "pid", proc.Pid)
			return proc.Release()
		},
	}
}
