package main

import (
	"fmt"

	"github.com/danmuck/wavewire/internal/codec"
	"github.com/danmuck/wavewire/internal/codec/builtin"
	"github.com/danmuck/wavewire/internal/logging"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	portable bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "wavectl",
		Short: "Waveform record codecs: schema evolution and encoding benchmarks",
		Long: `wavectl writes and reads waveform records across schema versions and
benchmarks protobuf, MessagePack and TLV encodings of the same record.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.ConfigureRuntime()
		},
	}
	cmd.PersistentFlags().BoolVar(&opts.portable, "portable", false, "hide native backends, as a purego build does")

	cmd.AddCommand(
		newProduceCmd(opts),
		newConsumeCmd(opts),
		newCheckCmd(opts),
		newBenchCmd(opts),
		newSchemaCmd(),
		newConfigCmd(),
	)
	return cmd
}

func (o *rootOptions) registry() *codec.Registry {
	if o.portable {
		return builtin.Portable()
	}
	return builtin.Default()
}

// codecBackend resolves name and picks the requested backend, or the
// portable one when the build does not offer it.
func (o *rootOptions) codecBackend(cmd *cobra.Command, name, backend string) (codec.Codec, codec.Backend, error) {
	c, err := o.registry().Resolve(name)
	if err != nil {
		return nil, 0, err
	}
	b, err := codec.ParseBackend(backend)
	if err != nil {
		return nil, 0, err
	}
	if !codec.Supports(c, b) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s backend unavailable, using %s\n", c.Name(), b, codec.PortableFallback)
		b = codec.PortableFallback
	}
	return c, b, nil
}
