package main

import (
	"fmt"

	"github.com/danmuck/wavewire/internal/evolution"
	"github.com/spf13/cobra"
)

func newCheckCmd(root *rootOptions) *cobra.Command {
	var names []string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the schema compatibility scenario in memory",
		Long: `Run the v2-writer / v1-reader compatibility scenario against every
backend of each codec and report contract violations.

Example:
  wavectl check --codec protobuf --codec msgpack`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := root.registry()
			if len(names) == 0 {
				names = reg.Names()
			}
			failed := 0
			for _, name := range names {
				c, err := reg.Resolve(name)
				if err != nil {
					return err
				}
				for _, b := range c.Backends() {
					report, err := evolution.Check(c, b)
					if err != nil {
						return fmt.Errorf("%s/%s: %w", c.Name(), b, err)
					}
					introspection := "unsupported"
					if report.Introspection {
						introspection = "supported"
					}
					if report.OK() {
						fmt.Fprintf(cmd.OutOrStdout(), "ok    %s/%s (introspection %s)\n", c.Name(), b, introspection)
						continue
					}
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL  %s/%s\n", c.Name(), b)
					for _, v := range report.Violations {
						fmt.Fprintf(cmd.OutOrStdout(), "      %v\n", v)
					}
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d backend(s) violate the compatibility contract", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&names, "codec", nil, "codec names (default: all)")
	return cmd
}
