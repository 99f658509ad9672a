// Package msgpack encodes waveform records as a MessagePack map keyed by
// field name.
//
// Encoders come in two backends and two representations:
//
//   - native backend: the msgp append API, the code path msgp generates for
//     MarshalMsg;
//   - portable backend: the streaming msgp.Writer;
//   - native-record representation: samples written as float32, the record
//     walked field by field;
//   - field-map representation: a generic map encoded with msgp's interface
//     encoder, which writes samples as float64.
//
// The two representations produce different sizes for the same record and
// are reported separately by the benchmark harness. Field-map keys follow Go
// map iteration order, so its bytes vary between encodes of the same record
// while its size does not. Passthrough still reproduces whatever order was
// read.
package msgpack

import (
	"fmt"

	"github.com/danmuck/wavewire/internal/codec"
)

const Name = "msgpack"

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
	return []codec.Representation{codec.NativeRecord, codec.FieldMap}
}

func (c *Codec) NewEncoder(opts codec.EncoderOptions) (codec.Encoder, error) {
	if opts.Representation != codec.NativeRecord && opts.Representation != codec.FieldMap {
		return nil, fmt.Errorf("%w: %s/%s", codec.ErrUnsupportedRepresentation, Name, opts.Representation)
	}
	switch {
	case opts.Backend == codec.Native && c.native:
		return &appendEncoder{repr: opts.Representation, sizeHint: opts.SizeHint}, nil
	case opts.Backend == codec.PortableFallback:
		return newStreamEncoder(opts.Representation, opts.SizeHint), nil
	default:
		return nil, fmt.Errorf("%w: %s/%s", codec.ErrBackendUnavailable, Name, opts.Backend)
	}
}

// NewDecoder returns the byte-slice decoder; both backends share it.
func (c *Codec) NewDecoder(b codec.Backend) (codec.Decoder, error) {
	if !codec.Supports(c, b) {
		return nil, fmt.Errorf("%w: %s/%s", codec.ErrBackendUnavailable, Name, b)
	}
	return decoder{backend: b}, nil
}
