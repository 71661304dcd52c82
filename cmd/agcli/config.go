package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bamsammich/agcli/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show and edit the config file",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			fmt.Fprintln(a.stdout, a.configPath())
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the config file",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			doc, err := config.Encode(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, doc)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set one config key",
		Long: "Set one config key. Lists are comma-separated; an empty value clears optional repair defaults.\n\nKeys:\n  " +
			strings.Join(config.Keys(), "\n  "),
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				if errors.Is(err, config.ErrUnknownKey) {
					a.out.Error(fmt.Sprintf("Unknown config key %q", args[0]))
				} else {
					a.out.Error(err.Error())
				}
				return &exitError{code: 2}
			}
			if err := config.Save(a.configPath(), cfg); err != nil {
				return err
			}
			a.cfg = &cfg
			a.out.Notice(fmt.Sprintf("%s updated", args[0]))
			return nil
		},
	})

	return configCmd
}
