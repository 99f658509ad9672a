package main

import (
	"fmt"

	"github.com/danmuck/wavewire/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage benchmark configuration files",
	}

	var (
		output string
		kind   string
		force  bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a benchmark config template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(output, kind, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s config template to %s\n", kind, output)
			return nil
		},
	}
	initCmd.Flags().StringVar(&output, "output", "bench.toml", "output path for config template")
	initCmd.Flags().StringVar(&kind, "kind", "bench", "config kind")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite existing config file")

	var input string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an existing benchmark config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadBenchConfig(input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "validated %s: %d entries, %d trials\n", input, len(cfg.Entries), cfg.Trials)
			return nil
		},
	}
	validateCmd.Flags().StringVar(&input, "input", "bench.toml", "config path")

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}
