package main

import (
	"fmt"

	"github.com/danmuck/wavewire/internal/bench"
	"github.com/danmuck/wavewire/internal/config"
	"github.com/danmuck/wavewire/internal/observability"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newBenchCmd(root *rootOptions) *cobra.Command {
	var (
		path        string
		format      string
		metricsFile string
		trials      int
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare encoded size and encode time across codecs",
		Long: `Encode one synthetic waveform record repeatedly with every configured
codec entry and report size and timing. Entries that ran on a fallback
backend or a different input representation are labelled as such.

Example:
  wavectl bench --config bench.toml --format toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultBenchConfig()
			if path != "" {
				loaded, err := config.LoadBenchConfig(path)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if cmd.Flags().Changed("format") {
				cfg.Format = format
			}
			if cmd.Flags().Changed("metrics-file") {
				cfg.MetricsFile = metricsFile
			}
			if cmd.Flags().Changed("trials") {
				cfg.Trials = trials
			}
			if err := config.ValidateBenchConfig(cfg); err != nil {
				return err
			}

			entries, err := config.BenchEntries(cfg, root.registry())
			if err != nil {
				return err
			}
			clock := bench.SystemClock{}
			factory := bench.NewWaveformFactory(config.Waveform(cfg.Record), cfg.Seed, clock)
			report, runErr := bench.New(config.HarnessConfig(cfg), clock).Run(entries, factory, cfg.Trials)
			if report.Entries == nil {
				return runErr
			}

			out := cmd.OutOrStdout()
			switch cfg.Format {
			case "toml":
				err = report.WriteTOML(out)
			default:
				err = report.WriteText(out)
			}
			if err != nil {
				return err
			}
			if cfg.MetricsFile != "" {
				if err := observability.WriteTextfile(cfg.MetricsFile); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
				log.Info().Str("path", cfg.MetricsFile).Msg("metrics written")
			}
			return runErr
		},
	}
	f := cmd.Flags()
	f.StringVar(&path, "config", "", "benchmark config (TOML); defaults apply when omitted")
	f.StringVar(&format, "format", "text", "report format: text|toml")
	f.StringVar(&metricsFile, "metrics-file", "", "write prometheus textfile metrics here")
	f.IntVar(&trials, "trials", 0, "override the configured trial count")
	return cmd
}
