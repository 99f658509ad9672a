package main

import (
	"fmt"

	"github.com/danmuck/wavewire/internal/codec/protobuf"
	"github.com/danmuck/wavewire/internal/schema"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/prototext"
)

func newSchemaCmd() *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the protobuf descriptor of a schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := schema.ParseVersion(version)
			if err != nil {
				return err
			}
			out, err := prototext.MarshalOptions{Multiline: true}.Marshal(protobuf.FileDescriptorProto(v))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "version", "v2", "schema version")
	return cmd
}
