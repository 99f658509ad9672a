package schema

import (
	"fmt"
	"strconv"
)

// Value is a decoded field value. Only the slot matching Kind is meaningful.
type Value struct {
	Kind   Kind
	Int    int64
	Uint   uint64
	Floats []float32
}

func IntValue(v int64) Value {
	return Value{Kind: KindInt64, Int: v}
}

func Uint64Value(v uint64) Value {
	return Value{Kind: KindUint64, Uint: v}
}

func Uint32Value(v uint32) Value {
	return Value{Kind: KindUint32, Uint: uint64(v)}
}

func FloatsValue(v []float32) Value {
	return Value{Kind: KindFloat32s, Floats: v}
}

// Zero returns the default value a reader reports for an absent field.
func Zero(k Kind) Value {
	return Value{Kind: k}
}

func (v Value) IsZero() bool {
	switch v.Kind {
	case KindInt64:
		return v.Int == 0
	case KindUint64, KindUint32:
		return v.Uint == 0
	case KindFloat32s:
		return len(v.Floats) == 0
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt64:
		return strconv.FormatInt(v.Int, 10)
	case KindUint64, KindUint32:
		return strconv.FormatUint(v.Uint, 10)
	case KindFloat32s:
		if len(v.Floats) <= 4 {
			return fmt.Sprintf("%v", v.Floats)
		}
		return fmt.Sprintf("[%v %v %v ... (%d values)]", v.Floats[0], v.Floats[1], v.Floats[2], len(v.Floats))
	default:
		return "<invalid>"
	}
}

// Convert checks v against the kind a field spec declares.
func (v Value) Convert(spec FieldSpec) (Value, error) {
	if v.Kind == spec.Kind {
		return v, nil
	}
	if spec.Kind == KindUint32 && v.Kind == KindUint64 {
		if v.Uint > uint64(^uint32(0)) {
			return Value{}, fmt.Errorf("schema: field %s: value %d overflows uint32", spec.Name, v.Uint)
		}
		return Uint32Value(uint32(v.Uint)), nil
	}
	return Value{}, fmt.Errorf("schema: field %s: kind mismatch: got %s want %s", spec.Name, v.Kind, spec.Kind)
}
