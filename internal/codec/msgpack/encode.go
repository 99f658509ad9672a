package msgpack

import (
	"bytes"

	"github.com/danmuck/wavewire/internal/codec"
	"github.com/danmuck/wavewire/internal/schema"
	"github.com/tinylib/msgp/msgp"
)

func prepare(repr codec.Representation, rec *schema.Record) (codec.Input, error) {
	if repr == codec.FieldMap {
		return codec.PrepareFieldMap(rec)
	}
	return codec.PrepareRecord(rec)
}

func checkInput(repr codec.Representation, in codec.Input) error {
	if in.Representation != repr {
		return codec.ErrInputMismatch
	}
	if repr == codec.NativeRecord && in.Record == nil {
		return codec.ErrInputMismatch
	}
	if repr == codec.FieldMap && in.Fields == nil {
		return codec.ErrInputMismatch
	}
	return nil
}

func emitted(rec *schema.Record) uint32 {
	var n uint32
	for _, spec := range schema.Fields(rec.Version) {
		if _, ok := rec.FieldValue(spec); ok {
			n++
		}
	}
	return n
}

type appendEncoder struct {
	repr     codec.Representation
	sizeHint int
}

func (*appendEncoder) Backend() codec.Backend                 { return codec.Native }
func (e *appendEncoder) Representation() codec.Representation { return e.repr }

func (e *appendEncoder) Prepare(rec *schema.Record) (codec.Input, error) {
	return prepare(e.repr, rec)
}

func (e *appendEncoder) Encode(dst []byte, in codec.Input) ([]byte, error) {
	if err := checkInput(e.repr, in); err != nil {
		return nil, err
	}
	if dst == nil && e.sizeHint > 0 {
		dst = make([]byte, 0, e.sizeHint)
	}
	if e.repr == codec.FieldMap {
		return msgp.AppendIntf(dst, in.Fields)
	}
	rec := in.Record
	dst = msgp.AppendMapHeader(dst, emitted(rec))
	for _, spec := range schema.Fields(rec.Version) {
		v, ok := rec.FieldValue(spec)
		if !ok {
			continue
		}
		dst = msgp.AppendString(dst, spec.Name)
		switch spec.Kind {
		case schema.KindInt64:
			dst = msgp.AppendInt64(dst, v.Int)
		case schema.KindUint64:
			dst = msgp.AppendUint64(dst, v.Uint)
		case schema.KindUint32:
			dst = msgp.AppendUint32(dst, uint32(v.Uint))
		case schema.KindFloat32s:
			dst = msgp.AppendArrayHeader(dst, uint32(len(v.Floats)))
			for _, f := range v.Floats {
				dst = msgp.AppendFloat32(dst, f)
			}
		}
	}
	return dst, nil
}

// streamEncoder owns one buffer and writer for its lifetime.
type streamEncoder struct {
	repr codec.Representation
	buf  *bytes.Buffer
	w    *msgp.Writer
}

func newStreamEncoder(repr codec.Representation, sizeHint int) *streamEncoder {
	if sizeHint < 0 {
		sizeHint = 0
	}
	buf := bytes.NewBuffer(make([]byte, 0, sizeHint))
	return &streamEncoder{repr: repr, buf: buf, w: msgp.NewWriter(buf)}
}

func (*streamEncoder) Backend() codec.Backend                 { return codec.PortableFallback }
func (e *streamEncoder) Representation() codec.Representation { return e.repr }

func (e *streamEncoder) Prepare(rec *schema.Record) (codec.Input, error) {
	return prepare(e.repr, rec)
}

func (e *streamEncoder) Encode(dst []byte, in codec.Input) ([]byte, error) {
	if err := checkInput(e.repr, in); err != nil {
		return nil, err
	}
	e.buf.Reset()
	e.w.Reset(e.buf)
	if err := e.write(in); err != nil {
		return nil, err
	}
	if err := e.w.Flush(); err != nil {
		return nil, err
	}
	return append(dst, e.buf.Bytes()...), nil
}

func (e *streamEncoder) write(in codec.Input) error {
	if e.repr == codec.FieldMap {
		return e.w.WriteIntf(in.Fields)
	}
	rec := in.Record
	if err := e.w.WriteMapHeader(emitted(rec)); err != nil {
		return err
	}
	for _, spec := range schema.Fields(rec.Version) {
		v, ok := rec.FieldValue(spec)
		if !ok {
			continue
		}
		if err := e.w.WriteString(spec.Name); err != nil {
			return err
		}
		var err error
		switch spec.Kind {
		case schema.KindInt64:
			err = e.w.WriteInt64(v.Int)
		case schema.KindUint64:
			err = e.w.WriteUint64(v.Uint)
		case schema.KindUint32:
			err = e.w.WriteUint32(uint32(v.Uint))
		case schema.KindFloat32s:
			err = e.w.WriteArrayHeader(uint32(len(v.Floats)))
			for i := 0; err == nil && i < len(v.Floats); i++ {
				err = e.w.WriteFloat32(v.Floats[i])
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
