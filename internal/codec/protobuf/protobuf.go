// Package protobuf encodes waveform records in the protobuf wire format.
//
// Two backends exist. The native backend appends and consumes wire fields
// directly with protowire. The portable backend builds a dynamicpb message
// from a descriptor generated at runtime for each schema version and lets
// the protobuf runtime marshal it. Both write fields in number order, so
// their output is byte-identical.
//
// Required fields are declared proto2-required and always written. Optional
// fields carry explicit presence. Implicit fields (identity as a v1 reader
// sees it) are written only when non-zero.
package protobuf

import (
	"fmt"

	"github.com/danmuck/wavewire/internal/codec"
)

const Name = "protobuf"

type Option func(*Codec)

// WithoutNative hides the native backend, as a purego build does.
func WithoutNative() Option {
	return func(c *Codec) {
		c.native = false
	}
}

type Codec struct {
	native bool
}

func New(opts ...Option) *Codec {
	c := &Codec{native: nativeAvailable}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (*Codec) Name() string { return Name }

func (c *Codec) Backends() []codec.Backend {
	if c.native {
		return []codec.Backend{codec.Native, codec.PortableFallback}
	}
	return []codec.Backend{codec.PortableFallback}
}

func (*Codec) Representations() []codec.Representation {
	return []codec.Representation{codec.NativeRecord}
}

func (c *Codec) NewEncoder(opts codec.EncoderOptions) (codec.Encoder, error) {
	if opts.Representation != codec.NativeRecord {
		return nil, fmt.Errorf("%w: %s/%s", codec.ErrUnsupportedRepresentation, Name, opts.Representation)
	}
	switch {
	case opts.Backend == codec.Native && c.native:
		return &wireEncoder{sizeHint: opts.SizeHint}, nil
	case opts.Backend == codec.PortableFallback:
		descs, err := descriptors()
		if err != nil {
			return nil, err
		}
		return &dynamicEncoder{descs: descs}, nil
	default:
		return nil, fmt.Errorf("%w: %s/%s", codec.ErrBackendUnavailable, Name, opts.Backend)
	}
}

func (c *Codec) NewDecoder(b codec.Backend) (codec.Decoder, error) {
	switch {
	case b == codec.Native && c.native:
		return wireDecoder{}, nil
	case b == codec.PortableFallback:
		descs, err := descriptors()
		if err != nil {
			return nil, err
		}
		return &dynamicDecoder{descs: descs}, nil
	default:
		return nil, fmt.Errorf("%w: %s/%s", codec.ErrBackendUnavailable, Name, b)
	}
}
