package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/wavewire/internal/schema"
)

var (
	ErrMalformedEncoding         = errors.New("codec: malformed encoding")
	ErrBackendUnavailable        = errors.New("codec: backend unavailable")
	ErrUnsupportedIntrospection  = errors.New("codec: unknown-field introspection unsupported")
	ErrUnsupportedRepresentation = errors.New("codec: representation unsupported")
	ErrInputMismatch             = errors.New("codec: input does not match encoder representation")
)

// Malformed wraps ErrMalformedEncoding with decode context.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedEncoding, fmt.Sprintf(format, args...))
}

// Backend identifies one implementation of a codec's encode/decode routines.
// Results measured on different backends are not comparable.
type Backend int

const (
	Native Backend = iota + 1
	PortableFallback
)

func (b Backend) String() string {
	switch b {
	case Native:
		return "native"
	case PortableFallback:
		return "portable"
	default:
		return fmt.Sprintf("backend(%d)", int(b))
	}
}

func ParseBackend(raw string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "native":
		return Native, nil
	case "portable", "fallback", "portable-fallback":
		return PortableFallback, nil
	default:
		return 0, fmt.Errorf("codec: unknown backend %q", raw)
	}
}

// Representation is the input form an encoder consumes.
type Representation int

const (
	// NativeRecord encoders walk schema.Record directly.
	NativeRecord Representation = iota + 1
	// FieldMap encoders consume a generic name-to-value map derived from the
	// record. Sizes and timings differ from NativeRecord and must not be
	// compared with it.
	FieldMap
)

func (r Representation) String() string {
	switch r {
	case NativeRecord:
		return "native-record"
	case FieldMap:
		return "field-map"
	default:
		return fmt.Sprintf("representation(%d)", int(r))
	}
}

func ParseRepresentation(raw string) (Representation, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "native", "native-record", "record":
		return NativeRecord, nil
	case "field-map", "fieldmap", "map":
		return FieldMap, nil
	default:
		return 0, fmt.Errorf("codec: unknown representation %q", raw)
	}
}

// Codec is one wire format with its available backends.
type Codec interface {
	Name() string
	// Backends reports which backends this build can construct.
	Backends() []Backend
	Representations() []Representation
	NewEncoder(opts EncoderOptions) (Encoder, error)
	NewDecoder(b Backend) (Decoder, error)
}

type EncoderOptions struct {
	Backend        Backend
	Representation Representation
	// SizeHint presizes internal buffers.
	SizeHint int
}

// Input is a record already converted to an encoder's representation.
type Input struct {
	Version        schema.Version
	Representation Representation
	Record         *schema.Record
	Fields         map[string]any
}

type Encoder interface {
	Backend() Backend
	Representation() Representation
	// Prepare converts rec into the encoder's input form. It validates rec.
	Prepare(rec *schema.Record) (Input, error)
	// Encode appends the encoding of in to dst.
	Encode(dst []byte, in Input) ([]byte, error)
}

type Decoder interface {
	Backend() Backend
	// Decode parses data as seen by a reader built against version reader.
	Decode(data []byte, reader schema.Version) (Message, error)
}

// Message is one decoded record. Presence is reported per field
// independently of value.
type Message interface {
	// Lookup returns a field declared by the reader version when it was on
	// the wire.
	Lookup(id schema.FieldID) (schema.Value, bool)
	// UnknownFields enumerates data the reader version does not declare.
	// Backends that keep unknown data opaque return ErrUnsupportedIntrospection.
	UnknownFields() ([]RawField, error)
	// Marshal re-serializes the message without modification, unknown data
	// included.
	Marshal() ([]byte, error)
}

// RawField is one undeclared field in its encoded form.
type RawField struct {
	// Key is the wire tag or map key rendered as text.
	Key string
	Raw []byte
}

// Supports reports whether c can construct backend b.
func Supports(c Codec, b Backend) bool {
	for _, have := range c.Backends() {
		if have == b {
			return true
		}
	}
	return false
}

func SupportsRepresentation(c Codec, r Representation) bool {
	for _, have := range c.Representations() {
		if have == r {
			return true
		}
	}
	return false
}

// PrepareRecord is the shared Prepare for NativeRecord encoders.
func PrepareRecord(rec *schema.Record) (Input, error) {
	if rec == nil {
		return Input{}, errors.New("codec: nil record")
	}
	if err := rec.Validate(); err != nil {
		return Input{}, err
	}
	return Input{Version: rec.Version, Representation: NativeRecord, Record: rec}, nil
}

// PrepareFieldMap derives the generic field-map form of rec. Unset fields
// are left out. Samples become a generic list of float64 values.
func PrepareFieldMap(rec *schema.Record) (Input, error) {
	in, err := PrepareRecord(rec)
	if err != nil {
		return Input{}, err
	}
	fields := make(map[string]any, len(schema.Fields(rec.Version)))
	for _, spec := range schema.Fields(rec.Version) {
		v, ok := rec.FieldValue(spec)
		if !ok {
			continue
		}
		switch v.Kind {
		case schema.KindInt64:
			fields[spec.Name] = v.Int
		case schema.KindUint64:
			fields[spec.Name] = v.Uint
		case schema.KindUint32:
			fields[spec.Name] = uint32(v.Uint)
		case schema.KindFloat32s:
			list := make([]any, len(v.Floats))
			for i, f := range v.Floats {
				list[i] = float64(f)
			}
			fields[spec.Name] = list
		}
	}
	in.Representation = FieldMap
	in.Record = nil
	in.Fields = fields
	return in, nil
}
