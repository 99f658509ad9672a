// Package tlvcodec encodes waveform records with the in-house
// id/type/length/value framing from internal/protocol/tlv.
//
// The framing is pure Go on encoding/binary, so only the portable backend
// exists; requesting the native backend reports ErrBackendUnavailable.
package tlvcodec

import (
	"fmt"
	"strconv"

	"github.com/danmuck/wavewire/internal/codec"
	"github.com/danmuck/wavewire/internal/protocol/tlv"
	"github.com/danmuck/wavewire/internal/schema"
	"github.com/rs/zerolog/log"
)

const Name = "tlv"

type Codec struct{}

func New() *Codec {
	return &Codec{}
}

func (*Codec) Name() string { return Name }

func (*Codec) Backends() []codec.Backend {
	return []codec.Backend{codec.PortableFallback}
}

func (*Codec) Representations() []codec.Representation {
	return []codec.Representation{codec.NativeRecord}
}

func (c *Codec) NewEncoder(opts codec.EncoderOptions) (codec.Encoder, error) {
	if opts.Backend != codec.PortableFallback {
		return nil, fmt.Errorf("%w: %s/%s", codec.ErrBackendUnavailable, Name, opts.Backend)
	}
	if opts.Representation != codec.NativeRecord {
		return nil, fmt.Errorf("%w: %s/%s", codec.ErrUnsupportedRepresentation, Name, opts.Representation)
	}
	return encoder{}, nil
}

func (c *Codec) NewDecoder(b codec.Backend) (codec.Decoder, error) {
	if b != codec.PortableFallback {
		return nil, fmt.Errorf("%w: %s/%s", codec.ErrBackendUnavailable, Name, b)
	}
	return decoder{}, nil
}

func typeFor(k schema.Kind) uint8 {
	switch k {
	case schema.KindInt64:
		return tlv.TypeI64
	case schema.KindUint64:
		return tlv.TypeU64
	case schema.KindUint32:
		return tlv.TypeU32
	case schema.KindFloat32s:
		return tlv.TypeF32s
	default:
		return 0
	}
}

type encoder struct{}

func (encoder) Backend() codec.Backend               { return codec.PortableFallback }
func (encoder) Representation() codec.Representation { return codec.NativeRecord }

func (encoder) Prepare(rec *schema.Record) (codec.Input, error) {
	return codec.PrepareRecord(rec)
}

func (encoder) Encode(dst []byte, in codec.Input) ([]byte, error) {
	if in.Representation != codec.NativeRecord || in.Record == nil {
		return nil, codec.ErrInputMismatch
	}
	rec := in.Record
	for _, spec := range schema.Fields(rec.Version) {
		v, ok := rec.FieldValue(spec)
		if !ok {
			continue
		}
		id := uint16(spec.ID)
		var f tlv.Field
		switch spec.Kind {
		case schema.KindInt64:
			f = tlv.I64Field(id, v.Int)
		case schema.KindUint64:
			f = tlv.U64Field(id, v.Uint)
		case schema.KindUint32:
			f = tlv.U32Field(id, uint32(v.Uint))
		case schema.KindFloat32s:
			f = tlv.F32sField(id, v.Floats)
		}
		dst = tlv.AppendField(dst, f)
	}
	return dst, nil
}

type decoder struct{}

func (decoder) Backend() codec.Backend { return codec.PortableFallback }

func (decoder) Decode(data []byte, reader schema.Version) (codec.Message, error) {
	fields, err := tlv.DecodeFields(data)
	if err != nil {
		return nil, codec.Malformed("%s: %v", Name, err)
	}
	msg := codec.NewFieldList(nil)
	for _, f := range fields {
		raw := tlv.EncodeField(f)
		key := strconv.Itoa(int(f.ID))
		spec, ok := schema.LookupID(reader, schema.FieldID(f.ID))
		if !ok {
			log.Debug().Str("codec", Name).Uint16("field_id", f.ID).Stringer("reader", reader).Msg("retaining unknown field")
			msg.Append(codec.Field{Key: key, Raw: raw})
			continue
		}
		if err := tlv.MustType(f, typeFor(spec.Kind)); err != nil {
			return nil, codec.Malformed("%s: %v", Name, err)
		}
		v, err := decodeValue(f, spec.Kind)
		if err != nil {
			return nil, codec.Malformed("%s: field %d: %v", Name, f.ID, err)
		}
		msg.Append(codec.Field{ID: spec.ID, Key: key, Known: true, Value: v, Raw: raw})
	}
	return msg, nil
}

func decodeValue(f tlv.Field, k schema.Kind) (schema.Value, error) {
	switch k {
	case schema.KindInt64:
		v, err := tlv.I64FromBytes(f.Value)
		return schema.IntValue(v), err
	case schema.KindUint64:
		v, err := tlv.U64FromBytes(f.Value)
		return schema.Uint64Value(v), err
	case schema.KindUint32:
		v, err := tlv.U32FromBytes(f.Value)
		return schema.Uint32Value(v), err
	case schema.KindFloat32s:
		v, err := tlv.F32sFromBytes(f.Value)
		return schema.FloatsValue(v), err
	default:
		return schema.Value{}, fmt.Errorf("unsupported kind %s", k)
	}
}
