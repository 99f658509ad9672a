// Package codectest holds the evolution conformance suite every wire codec
// must pass, plus fixtures shared by codec, resolver and harness tests.
package codectest

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/wavewire/internal/codec"
	"github.com/danmuck/wavewire/internal/schema"
)

// Scenario is the end-to-end compatibility record: a v2 writer that sets
// the extension field and leaves identity unset.
func Scenario() *schema.Record {
	payload := make([]float32, 256)
	copy(payload, []float32{12.4, 86.3, 19.8})
	for i := 3; i < len(payload); i++ {
		payload[i] = float32(i) * 0.25
	}
	rec, err := schema.NewRecord(schema.Record{
		Version:      schema.V2,
		Timestamp:    42,
		SampleRate:   16000,
		SampleCount:  128,
		ChannelCount: 2,
		Payload:      payload,
		Extension:    schema.Int64(18),
	})
	if err != nil {
		panic(err)
	}
	return rec
}

// Small is a minimal valid record of version v.
func Small(v schema.Version) *schema.Record {
	return &schema.Record{
		Version:      v,
		Timestamp:    7,
		SampleRate:   8000,
		SampleCount:  2,
		ChannelCount: 1,
		Payload:      []float32{0.5, -0.5},
	}
}

func Encode(t testing.TB, c codec.Codec, b codec.Backend, rec *schema.Record) []byte {
	t.Helper()
	enc, err := c.NewEncoder(codec.EncoderOptions{Backend: b, Representation: codec.NativeRecord})
	if err != nil {
		t.Fatalf("%s/%s: new encoder: %v", c.Name(), b, err)
	}
	in, err := enc.Prepare(rec)
	if err != nil {
		t.Fatalf("%s/%s: prepare: %v", c.Name(), b, err)
	}
	out, err := enc.Encode(nil, in)
	if err != nil {
		t.Fatalf("%s/%s: encode: %v", c.Name(), b, err)
	}
	return out
}

func Decode(t testing.TB, c codec.Codec, b codec.Backend, data []byte, reader schema.Version) codec.Message {
	t.Helper()
	dec, err := c.NewDecoder(b)
	if err != nil {
		t.Fatalf("%s/%s: new decoder: %v", c.Name(), b, err)
	}
	msg, err := dec.Decode(data, reader)
	if err != nil {
		t.Fatalf("%s/%s: decode under %s: %v", c.Name(), b, reader, err)
	}
	return msg
}

// RequireBaseFields checks every field both versions declare with
// required or repeated presence.
func RequireBaseFields(t testing.TB, msg codec.Message, want *schema.Record) {
	t.Helper()
	for _, spec := range schema.Fields(schema.V1) {
		if spec.Presence != schema.Required && spec.Presence != schema.Repeated {
			continue
		}
		got, ok := msg.Lookup(spec.ID)
		if !ok {
			t.Fatalf("field %s missing", spec.Name)
		}
		exp, _ := want.FieldValue(spec)
		if !equalValues(got, exp) {
			t.Fatalf("field %s = %s want %s", spec.Name, got, exp)
		}
	}
}

func equalValues(a, b schema.Value) bool {
	if a.Kind != b.Kind || a.Int != b.Int || a.Uint != b.Uint || len(a.Floats) != len(b.Floats) {
		return false
	}
	for i := range a.Floats {
		if a.Floats[i] != b.Floats[i] {
			return false
		}
	}
	return true
}

// Conformance runs the evolution contract against every backend c offers.
func Conformance(t *testing.T, c codec.Codec) {
	for _, b := range c.Backends() {
		b := b
		t.Run(b.String(), func(t *testing.T) {
			conformance(t, c, b)
		})
	}
}

func conformance(t *testing.T, c codec.Codec, b codec.Backend) {
	t.Run("SameVersionRoundTrip", func(t *testing.T) {
		rec := Scenario()
		msg := Decode(t, c, b, Encode(t, c, b, rec), schema.V2)
		RequireBaseFields(t, msg, rec)
		if v, ok := msg.Lookup(schema.FieldExtension); !ok || v.Int != 18 {
			t.Fatalf("extension = %v,%v", v, ok)
		}
		if _, ok := msg.Lookup(schema.FieldIdentity); ok {
			t.Fatalf("unset identity reported present")
		}
	})

	t.Run("ExplicitZeroIsPresent", func(t *testing.T) {
		rec := Small(schema.V2)
		rec.Identity = schema.Uint64(0)
		rec.Extension = schema.Int64(0)
		msg := Decode(t, c, b, Encode(t, c, b, rec), schema.V2)
		for _, id := range []schema.FieldID{schema.FieldIdentity, schema.FieldExtension} {
			v, ok := msg.Lookup(id)
			if !ok || !v.IsZero() {
				t.Fatalf("field %d: explicit zero must be present, got %v,%v", id, v, ok)
			}
		}
	})

	t.Run("ImplicitZeroNotWritten", func(t *testing.T) {
		rec := Small(schema.V1)
		rec.Identity = schema.Uint64(0)
		msg := Decode(t, c, b, Encode(t, c, b, rec), schema.V1)
		if _, ok := msg.Lookup(schema.FieldIdentity); ok {
			t.Fatalf("implicit zero identity must not reach the wire")
		}
	})

	t.Run("NewerWriterOlderReader", func(t *testing.T) {
		rec := Scenario()
		data := Encode(t, c, b, rec)
		msg := Decode(t, c, b, data, schema.V1)
		RequireBaseFields(t, msg, rec)
		if _, ok := msg.Lookup(schema.FieldExtension); ok {
			t.Fatalf("v1 reader exposed extension field")
		}
		out, err := msg.Marshal()
		if err != nil {
			t.Fatalf("passthrough: %v", err)
		}
		if !bytes.Equal(out, data) {
			t.Fatalf("passthrough changed bytes: got %d bytes want %d", len(out), len(data))
		}
		unknown, err := msg.UnknownFields()
		switch {
		case errors.Is(err, codec.ErrUnsupportedIntrospection):
		case err != nil:
			t.Fatalf("unknown fields: %v", err)
		case len(unknown) != 1:
			t.Fatalf("expected one unknown field, got %+v", unknown)
		}
	})

	t.Run("OlderWriterNewerReader", func(t *testing.T) {
		rec := Small(schema.V1)
		rec.Identity = schema.Uint64(11512)
		msg := Decode(t, c, b, Encode(t, c, b, rec), schema.V2)
		RequireBaseFields(t, msg, rec)
		if v, ok := msg.Lookup(schema.FieldIdentity); !ok || v.Uint != 11512 {
			t.Fatalf("identity = %v,%v", v, ok)
		}
		if _, ok := msg.Lookup(schema.FieldExtension); ok {
			t.Fatalf("v1 writer cannot set extension")
		}
	})

	t.Run("TruncatedIsMalformed", func(t *testing.T) {
		data := Encode(t, c, b, Scenario())
		dec, err := c.NewDecoder(b)
		if err != nil {
			t.Fatalf("new decoder: %v", err)
		}
		if _, err := dec.Decode(data[:len(data)-1], schema.V2); !errors.Is(err, codec.ErrMalformedEncoding) {
			t.Fatalf("expected ErrMalformedEncoding, got %v", err)
		}
	})

	t.Run("CrossBackend", func(t *testing.T) {
		rec := Scenario()
		data := Encode(t, c, b, rec)
		for _, other := range c.Backends() {
			msg := Decode(t, c, other, data, schema.V2)
			RequireBaseFields(t, msg, rec)
		}
	})

	t.Run("EncodeRejectsInvalidRecord", func(t *testing.T) {
		enc, err := c.NewEncoder(codec.EncoderOptions{Backend: b, Representation: codec.NativeRecord})
		if err != nil {
			t.Fatalf("new encoder: %v", err)
		}
		bad := Small(schema.V2)
		bad.SampleCount = 3
		if _, err := enc.Prepare(bad); !errors.Is(err, schema.ErrPayloadShape) {
			t.Fatalf("expected ErrPayloadShape, got %v", err)
		}
	})
}

// RequireMalformed decodes data on every backend of c under both reader
// versions and expects ErrMalformedEncoding each time.
func RequireMalformed(t *testing.T, c codec.Codec, data []byte) {
	t.Helper()
	for _, b := range c.Backends() {
		dec, err := c.NewDecoder(b)
		if err != nil {
			t.Fatalf("%s/%s: new decoder: %v", c.Name(), b, err)
		}
		for _, reader := range []schema.Version{schema.V1, schema.V2} {
			if _, err := dec.Decode(data, reader); !errors.Is(err, codec.ErrMalformedEncoding) {
				t.Fatalf("%s/%s under %s: expected ErrMalformedEncoding, got %v", c.Name(), b, reader, err)
			}
		}
	}
}
