package protobuf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/wavewire/internal/codec"
	"github.com/danmuck/wavewire/internal/codec/codectest"
	"github.com/danmuck/wavewire/internal/schema"
	"github.com/danmuck/wavewire/internal/testutil/testlog"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/descriptorpb"
)

func TestConformance(t *testing.T) {
	testlog.Start(t)
	codectest.Conformance(t, New())
}

func TestBackendsWriteIdenticalBytes(t *testing.T) {
	testlog.Start(t)
	c := New()
	rec := codectest.Scenario()
	rec.Identity = schema.Uint64(0)
	native := codectest.Encode(t, c, codec.Native, rec)
	portable := codectest.Encode(t, c, codec.PortableFallback, rec)
	if !bytes.Equal(native, portable) {
		t.Fatalf("backends disagree:\nnative   %x\nportable %x", native, portable)
	}
}

func TestRequiredZeroIsWritten(t *testing.T) {
	testlog.Start(t)
	rec := codectest.Small(schema.V2)
	rec.Timestamp = 0
	data := codectest.Encode(t, New(), codec.Native, rec)
	num, typ, n := protowire.ConsumeTag(data)
	if n < 0 || num != protowire.Number(schema.FieldTimestamp) || typ != protowire.VarintType {
		t.Fatalf("first field = %d/%d, want timestamp varint", num, typ)
	}
}

func TestNativeEnumeratesUnknownFields(t *testing.T) {
	testlog.Start(t)
	c := New()
	data := codectest.Encode(t, c, codec.Native, codectest.Scenario())
	msg := codectest.Decode(t, c, codec.Native, data, schema.V1)
	unknown, err := msg.UnknownFields()
	if err != nil {
		t.Fatalf("unknown fields: %v", err)
	}
	want := protowire.AppendTag(nil, 7, protowire.VarintType)
	want = protowire.AppendVarint(want, 18)
	if len(unknown) != 1 || unknown[0].Key != "7" || !bytes.Equal(unknown[0].Raw, want) {
		t.Fatalf("unknown = %+v", unknown)
	}
}

func TestPortableIntrospectionUnsupported(t *testing.T) {
	testlog.Start(t)
	c := New()
	data := codectest.Encode(t, c, codec.PortableFallback, codectest.Scenario())
	msg := codectest.Decode(t, c, codec.PortableFallback, data, schema.V1)
	if _, err := msg.UnknownFields(); !errors.Is(err, codec.ErrUnsupportedIntrospection) {
		t.Fatalf("expected ErrUnsupportedIntrospection, got %v", err)
	}
}

func TestWithoutNativeReportsUnavailable(t *testing.T) {
	testlog.Start(t)
	c := New(WithoutNative())
	if codec.Supports(c, codec.Native) {
		t.Fatalf("native backend must be hidden")
	}
	if _, err := c.NewEncoder(codec.EncoderOptions{Backend: codec.Native, Representation: codec.NativeRecord}); !errors.Is(err, codec.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if _, err := c.NewDecoder(codec.Native); !errors.Is(err, codec.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestFieldMapRepresentationUnsupported(t *testing.T) {
	testlog.Start(t)
	_, err := New().NewEncoder(codec.EncoderOptions{Backend: codec.Native, Representation: codec.FieldMap})
	if !errors.Is(err, codec.ErrUnsupportedRepresentation) {
		t.Fatalf("expected ErrUnsupportedRepresentation, got %v", err)
	}
}

func TestMissingRequiredDecodesAsAbsent(t *testing.T) {
	testlog.Start(t)
	// sample_rate, sample_count, channel_count and an empty payload; no timestamp
	var data []byte
	for _, id := range []schema.FieldID{schema.FieldSampleRate, schema.FieldSampleCount, schema.FieldChannelCount} {
		data = protowire.AppendTag(data, protowire.Number(id), protowire.VarintType)
		data = protowire.AppendVarint(data, 1)
	}
	c := New()
	for _, b := range c.Backends() {
		msg := codectest.Decode(t, c, b, data, schema.V2)
		if _, ok := msg.Lookup(schema.FieldTimestamp); ok {
			t.Fatalf("%s: timestamp reported present", b)
		}
		if v, ok := msg.Lookup(schema.FieldSampleRate); !ok || v.Uint != 1 {
			t.Fatalf("%s: sample_rate = %v,%v", b, v, ok)
		}
	}
}

func TestNativeRejectsWrongWireType(t *testing.T) {
	testlog.Start(t)
	data := protowire.AppendTag(nil, protowire.Number(schema.FieldTimestamp), protowire.Fixed64Type)
	data = protowire.AppendFixed64(data, 42)
	dec, err := New().NewDecoder(codec.Native)
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	if _, err := dec.Decode(data, schema.V2); !errors.Is(err, codec.ErrMalformedEncoding) {
		t.Fatalf("expected ErrMalformedEncoding, got %v", err)
	}
}

func TestNativeRejectsUint32Overflow(t *testing.T) {
	testlog.Start(t)
	data := protowire.AppendTag(nil, protowire.Number(schema.FieldSampleRate), protowire.VarintType)
	data = protowire.AppendVarint(data, 1<<33)
	dec, err := New().NewDecoder(codec.Native)
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	if _, err := dec.Decode(data, schema.V2); !errors.Is(err, codec.ErrMalformedEncoding) {
		t.Fatalf("expected ErrMalformedEncoding, got %v", err)
	}
}

func TestFileDescriptorProtoTracksVersion(t *testing.T) {
	testlog.Start(t)
	v1 := FileDescriptorProto(schema.V1).GetMessageType()[0]
	v2 := FileDescriptorProto(schema.V2).GetMessageType()[0]
	if len(v1.GetField()) != 6 || len(v2.GetField()) != 7 {
		t.Fatalf("field counts v1=%d v2=%d", len(v1.GetField()), len(v2.GetField()))
	}
	for _, fd := range v2.GetField() {
		switch fd.GetName() {
		case schema.NameTimestamp:
			if fd.GetLabel() != descriptorpb.FieldDescriptorProto_LABEL_REQUIRED {
				t.Fatalf("timestamp label = %s", fd.GetLabel())
			}
		case schema.NameExtension, schema.NameIdentity:
			if fd.GetLabel() != descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL {
				t.Fatalf("%s label = %s", fd.GetName(), fd.GetLabel())
			}
		case schema.NamePayload:
			if !fd.GetOptions().GetPacked() {
				t.Fatalf("payload must be packed")
			}
		}
	}
}

func TestOversizedPayloadLengthIsMalformed(t *testing.T) {
	testlog.Start(t)
	b := protowire.AppendTag(nil, protowire.Number(schema.FieldPayload), protowire.BytesType)
	b = protowire.AppendVarint(b, 1<<31-1)
	codectest.RequireMalformed(t, New(), b)
}
