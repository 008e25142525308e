package main

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/vango-dev/blockwire/internal/config"
)

func configCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and check blockwire.toml",
	}
	cmd.AddCommand(configInitCmd(), configValidateCmd(flags), configShowCmd(flags))
	return cmd
}

func configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default blockwire.toml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
			path, err := config.WriteDefault(dir)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Created %s", path)
			info(cmd.OutOrStdout(), "Run 'blockwire serve' to start the server")
			return nil
		},
	}
}

func configValidateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check blockwire.toml for errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cfg.Path() == "" {
				warn(cmd.OutOrStdout(), "No blockwire.toml found, using defaults")
				return nil
			}
			success(cmd.OutOrStdout(), "%s is valid", cfg.Path())
			return nil
		},
	}
}

func configShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}
}
