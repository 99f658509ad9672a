package msgpack

import (
	"fmt"
	"math"

	"github.com/danmuck/wavewire/internal/codec"
	"github.com/danmuck/wavewire/internal/schema"
	"github.com/rs/zerolog/log"
	"github.com/tinylib/msgp/msgp"
)

type decoder struct {
	backend codec.Backend
}

func (d decoder) Backend() codec.Backend { return d.backend }

func (decoder) Decode(data []byte, reader schema.Version) (codec.Message, error) {
	sz, b, err := msgp.ReadMapHeaderBytes(data)
	if err != nil {
		return nil, codec.Malformed("%s: map header: %v", Name, err)
	}
	msg := codec.NewFieldList(data[:len(data)-len(b)])
	for i := uint32(0); i < sz; i++ {
		start := b
		key, rest, err := msgp.ReadMapKeyZC(b)
		if err != nil {
			return nil, codec.Malformed("%s: key %d: %v", Name, i, err)
		}
		name := string(key)
		spec, ok := schema.Lookup(reader, name)
		if !ok {
			rest, err = msgp.Skip(rest)
			if err != nil {
				return nil, codec.Malformed("%s: field %q: %v", Name, name, err)
			}
			log.Debug().Str("codec", Name).Str("field", name).Stringer("reader", reader).Msg("retaining unknown field")
			msg.Append(codec.Field{Key: name, Raw: start[:len(start)-len(rest)]})
			b = rest
			continue
		}
		v, rest, err := readValue(spec, rest)
		if err != nil {
			return nil, codec.Malformed("%s: field %q: %v", Name, name, err)
		}
		msg.Append(codec.Field{ID: spec.ID, Key: name, Known: true, Value: v, Raw: start[:len(start)-len(rest)]})
		b = rest
	}
	if len(b) != 0 {
		return nil, codec.Malformed("%s: %d trailing bytes", Name, len(b))
	}
	return msg, nil
}

func readValue(spec schema.FieldSpec, b []byte) (schema.Value, []byte, error) {
	switch spec.Kind {
	case schema.KindInt64:
		i, o, err := readInt(b)
		return schema.IntValue(i), o, err
	case schema.KindUint64:
		u, o, err := readUint(b)
		return schema.Uint64Value(u), o, err
	case schema.KindUint32:
		u, o, err := readUint(b)
		if err == nil && u > math.MaxUint32 {
			err = msgp.UintOverflow{Value: u, FailedBitsize: 32}
		}
		return schema.Uint32Value(uint32(u)), o, err
	case schema.KindFloat32s:
		n, o, err := msgp.ReadArrayHeaderBytes(b)
		if err != nil {
			return schema.Value{}, b, err
		}
		// every sample takes at least a float32 marker and four bytes
		if uint64(n) > uint64(len(o))/5 {
			return schema.Value{}, b, fmt.Errorf("array of %d samples exceeds %d remaining bytes", n, len(o))
		}
		out := make([]float32, 0, n)
		for i := uint32(0); i < n; i++ {
			var f float32
			f, o, err = readFloat(o)
			if err != nil {
				return schema.Value{}, b, err
			}
			out = append(out, f)
		}
		return schema.FloatsValue(out), o, nil
	default:
		return schema.Value{}, b, fmt.Errorf("unsupported kind %s", spec.Kind)
	}
}

// Writers differ in whether small non-negative integers use the int or
// uint family, so both are accepted.
func readInt(b []byte) (int64, []byte, error) {
	switch msgp.NextType(b) {
	case msgp.UintType:
		u, o, err := msgp.ReadUint64Bytes(b)
		if err != nil {
			return 0, b, err
		}
		if u > math.MaxInt64 {
			return 0, b, msgp.UintOverflow{Value: u, FailedBitsize: 63}
		}
		return int64(u), o, nil
	default:
		return msgp.ReadInt64Bytes(b)
	}
}

func readUint(b []byte) (uint64, []byte, error) {
	switch msgp.NextType(b) {
	case msgp.IntType:
		i, o, err := msgp.ReadInt64Bytes(b)
		if err != nil {
			return 0, b, err
		}
		if i < 0 {
			return 0, b, fmt.Errorf("negative value %d for unsigned field", i)
		}
		return uint64(i), o, nil
	default:
		return msgp.ReadUint64Bytes(b)
	}
}

func readFloat(b []byte) (float32, []byte, error) {
	switch msgp.NextType(b) {
	case msgp.Float64Type:
		d, o, err := msgp.ReadFloat64Bytes(b)
		return float32(d), o, err
	default:
		return msgp.ReadFloat32Bytes(b)
	}
}
