package protobuf

import (
	"math"
	"strconv"

	"github.com/danmuck/wavewire/internal/codec"
	"github.com/danmuck/wavewire/internal/schema"
	"github.com/rs/zerolog/log"
	"google.golang.org/protobuf/encoding/protowire"
)

type wireEncoder struct {
	sizeHint int
}

func (*wireEncoder) Backend() codec.Backend               { return codec.Native }
func (*wireEncoder) Representation() codec.Representation { return codec.NativeRecord }

func (*wireEncoder) Prepare(rec *schema.Record) (codec.Input, error) {
	return codec.PrepareRecord(rec)
}

func (e *wireEncoder) Encode(dst []byte, in codec.Input) ([]byte, error) {
	if in.Representation != codec.NativeRecord || in.Record == nil {
		return nil, codec.ErrInputMismatch
	}
	if dst == nil && e.sizeHint > 0 {
		dst = make([]byte, 0, e.sizeHint)
	}
	return appendRecord(dst, in.Record), nil
}

func appendRecord(dst []byte, rec *schema.Record) []byte {
	for _, spec := range schema.Fields(rec.Version) {
		v, ok := rec.FieldValue(spec)
		if !ok {
			continue
		}
		num := protowire.Number(spec.ID)
		switch spec.Kind {
		case schema.KindInt64:
			dst = protowire.AppendTag(dst, num, protowire.VarintType)
			dst = protowire.AppendVarint(dst, uint64(v.Int))
		case schema.KindUint64, schema.KindUint32:
			dst = protowire.AppendTag(dst, num, protowire.VarintType)
			dst = protowire.AppendVarint(dst, v.Uint)
		case schema.KindFloat32s:
			// packed
			dst = protowire.AppendTag(dst, num, protowire.BytesType)
			dst = protowire.AppendVarint(dst, uint64(4*len(v.Floats)))
			for _, f := range v.Floats {
				dst = protowire.AppendFixed32(dst, math.Float32bits(f))
			}
		}
	}
	return dst
}

type wireDecoder struct{}

func (wireDecoder) Backend() codec.Backend { return codec.Native }

func (wireDecoder) Decode(data []byte, reader schema.Version) (codec.Message, error) {
	msg := codec.NewFieldList(nil)
	for b := data; len(b) > 0; {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, codec.Malformed("%s: tag: %v", Name, protowire.ParseError(n))
		}
		m := protowire.ConsumeFieldValue(num, typ, b[n:])
		if m < 0 {
			return nil, codec.Malformed("%s: field %d: %v", Name, num, protowire.ParseError(m))
		}
		raw, val := b[:n+m], b[n:n+m]
		b = b[n+m:]

		key := strconv.Itoa(int(num))
		var spec schema.FieldSpec
		ok := num <= math.MaxUint16
		if ok {
			spec, ok = schema.LookupID(reader, schema.FieldID(num))
		}
		if !ok {
			log.Debug().Str("codec", Name).Int32("field", int32(num)).Stringer("reader", reader).Msg("retaining unknown field")
			msg.Append(codec.Field{Key: key, Raw: raw})
			continue
		}
		v, err := consumeValue(spec, typ, val)
		if err != nil {
			return nil, err
		}
		msg.Append(codec.Field{ID: spec.ID, Key: key, Known: true, Value: v, Raw: raw})
	}
	return msg, nil
}

func consumeValue(spec schema.FieldSpec, typ protowire.Type, b []byte) (schema.Value, error) {
	switch spec.Kind {
	case schema.KindInt64, schema.KindUint64, schema.KindUint32:
		if typ != protowire.VarintType {
			return schema.Value{}, codec.Malformed("%s: field %s: wire type %d, want varint", Name, spec.Name, typ)
		}
		u, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return schema.Value{}, codec.Malformed("%s: field %s: %v", Name, spec.Name, protowire.ParseError(n))
		}
		switch spec.Kind {
		case schema.KindInt64:
			return schema.IntValue(int64(u)), nil
		case schema.KindUint32:
			if u > math.MaxUint32 {
				return schema.Value{}, codec.Malformed("%s: field %s: %d overflows uint32", Name, spec.Name, u)
			}
			return schema.Uint32Value(uint32(u)), nil
		default:
			return schema.Uint64Value(u), nil
		}
	case schema.KindFloat32s:
		switch typ {
		case protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return schema.Value{}, codec.Malformed("%s: field %s: %v", Name, spec.Name, protowire.ParseError(n))
			}
			if len(packed)%4 != 0 {
				return schema.Value{}, codec.Malformed("%s: field %s: packed length %d", Name, spec.Name, len(packed))
			}
			out := make([]float32, 0, len(packed)/4)
			for len(packed) > 0 {
				bits, n := protowire.ConsumeFixed32(packed)
				if n < 0 {
					return schema.Value{}, codec.Malformed("%s: field %s: %v", Name, spec.Name, protowire.ParseError(n))
				}
				out = append(out, math.Float32frombits(bits))
				packed = packed[n:]
			}
			return schema.FloatsValue(out), nil
		case protowire.Fixed32Type:
			bits, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return schema.Value{}, codec.Malformed("%s: field %s: %v", Name, spec.Name, protowire.ParseError(n))
			}
			return schema.FloatsValue([]float32{math.Float32frombits(bits)}), nil
		default:
			return schema.Value{}, codec.Malformed("%s: field %s: wire type %d, want packed fixed32", Name, spec.Name, typ)
		}
	default:
		return schema.Value{}, codec.Malformed("%s: field %s: unsupported kind %s", Name, spec.Name, spec.Kind)
	}
}
