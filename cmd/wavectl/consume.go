package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/wavewire/internal/artifact"
	"github.com/danmuck/wavewire/internal/codec"
	"github.com/danmuck/wavewire/internal/evolution"
	"github.com/danmuck/wavewire/internal/schema"
	"github.com/spf13/cobra"
)

type consumeOptions struct {
	in      string
	codec   string
	backend string
	version string
	fields  []string
}

func newConsumeCmd(root *rootOptions) *cobra.Command {
	opts := &consumeOptions{}
	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Decode a record file as a given reader version sees it",
		Long: `Decode a record file and print how each field resolves for the reader
schema version: present, absent and defaulted, or read without presence.

Example:
  wavectl consume --in v2.bin --codec protobuf --version v1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsume(cmd, root, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.in, "in", "", "artifact path")
	f.StringVar(&opts.codec, "codec", "protobuf", "codec name")
	f.StringVar(&opts.backend, "backend", "native", "codec backend: native|portable")
	f.StringVar(&opts.version, "version", "v1", "reader schema version")
	f.StringSliceVar(&opts.fields, "field", []string{schema.NameExtension}, "field names to access by name")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func runConsume(cmd *cobra.Command, root *rootOptions, opts *consumeOptions) error {
	v, err := schema.ParseVersion(opts.version)
	if err != nil {
		return err
	}
	c, b, err := root.codecBackend(cmd, opts.codec, opts.backend)
	if err != nil {
		return err
	}
	data, err := artifact.Read(opts.in)
	if err != nil {
		return err
	}
	dec, err := c.NewDecoder(b)
	if err != nil {
		return err
	}
	res, err := evolution.Resolve(data, dec, v)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), c.Name(), res, opts.fields)
	return nil
}

func printResult(w io.Writer, codecName string, res *evolution.Result, access []string) {
	fmt.Fprintf(w, "codec=%s backend=%s reader=%s\n", codecName, res.Backend(), res.Version())
	for _, out := range res.Outcomes() {
		presence := "presence not tracked"
		if has, err := res.Has(out.Field.Name); err == nil {
			presence = fmt.Sprintf("set=%t", has)
		}
		fmt.Fprintf(w, "  %-16s %-16s %-6s %s\n", out.Field.Name, out.Kind, presence, out.Value)
	}
	for _, name := range access {
		v, err := res.Get(name)
		var unknown evolution.UnknownFieldAccessError
		switch {
		case errors.As(err, &unknown):
			fmt.Fprintf(w, "  access %s: not declared by the %s reader\n", name, res.Version())
		case err != nil:
			fmt.Fprintf(w, "  access %s: %v\n", name, err)
		default:
			fmt.Fprintf(w, "  access %s: %s\n", name, v)
		}
	}
	unknown, err := res.UnknownFields()
	switch {
	case errors.Is(err, codec.ErrUnsupportedIntrospection):
		fmt.Fprintf(w, "unknown fields: kept opaque by the %s backend (introspection unsupported)\n", res.Backend())
	case err != nil:
		fmt.Fprintf(w, "unknown fields: %v\n", err)
	default:
		fmt.Fprintf(w, "unknown fields: %d\n", len(unknown))
		for _, f := range unknown {
			fmt.Fprintf(w, "  %s: %d bytes\n", f.Key, len(f.Raw))
		}
	}
	fmt.Fprintf(w, "set optional fields: %v\n", res.SetFields())
}
