package codec

import (
	"github.com/danmuck/wavewire/internal/schema"
)

// Field is one decoded wire field kept in its original encoded form.
type Field struct {
	ID    schema.FieldID
	Key   string
	Known bool
	Value schema.Value
	Raw   []byte
}

// FieldList is a Message that keeps every wire field in arrival order, so
// re-serialization reproduces the input byte for byte.
type FieldList struct {
	header []byte
	fields []Field
	known  map[schema.FieldID]schema.Value
}

// NewFieldList starts a message whose encoding begins with header.
func NewFieldList(header []byte) *FieldList {
	h := make([]byte, len(header))
	copy(h, header)
	return &FieldList{header: h, known: make(map[schema.FieldID]schema.Value)}
}

// Append records f. A repeated field seen twice accumulates its values;
// any other known field keeps the last occurrence.
func (l *FieldList) Append(f Field) {
	raw := make([]byte, len(f.Raw))
	copy(raw, f.Raw)
	f.Raw = raw
	l.fields = append(l.fields, f)
	if !f.Known {
		return
	}
	if prev, ok := l.known[f.ID]; ok && prev.Kind == schema.KindFloat32s && f.Value.Kind == schema.KindFloat32s {
		merged := make([]float32, 0, len(prev.Floats)+len(f.Value.Floats))
		merged = append(merged, prev.Floats...)
		merged = append(merged, f.Value.Floats...)
		l.known[f.ID] = schema.FloatsValue(merged)
		return
	}
	l.known[f.ID] = f.Value
}

func (l *FieldList) Len() int {
	return len(l.fields)
}

func (l *FieldList) Lookup(id schema.FieldID) (schema.Value, bool) {
	v, ok := l.known[id]
	return v, ok
}

func (l *FieldList) UnknownFields() ([]RawField, error) {
	var out []RawField
	for _, f := range l.fields {
		if f.Known {
			continue
		}
		raw := make([]byte, len(f.Raw))
		copy(raw, f.Raw)
		out = append(out, RawField{Key: f.Key, Raw: raw})
	}
	return out, nil
}

func (l *FieldList) Marshal() ([]byte, error) {
	size := len(l.header)
	for _, f := range l.fields {
		size += len(f.Raw)
	}
	out := make([]byte, 0, size)
	out = append(out, l.header...)
	for _, f := range l.fields {
		out = append(out, f.Raw...)
	}
	return out, nil
}
