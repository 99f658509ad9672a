package tlvcodec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/wavewire/internal/codec"
	"github.com/danmuck/wavewire/internal/codec/codectest"
	"github.com/danmuck/wavewire/internal/protocol/tlv"
	"github.com/danmuck/wavewire/internal/schema"
	"github.com/danmuck/wavewire/internal/testutil/testlog"
)

func TestConformance(t *testing.T) {
	testlog.Start(t)
	codectest.Conformance(t, New())
}

func TestNativeBackendUnavailable(t *testing.T) {
	testlog.Start(t)
	c := New()
	if _, err := c.NewEncoder(codec.EncoderOptions{Backend: codec.Native, Representation: codec.NativeRecord}); !errors.Is(err, codec.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if _, err := c.NewDecoder(codec.Native); !errors.Is(err, codec.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestUnknownFieldKeptRaw(t *testing.T) {
	testlog.Start(t)
	c := New()
	data := codectest.Encode(t, c, codec.PortableFallback, codectest.Scenario())
	msg := codectest.Decode(t, c, codec.PortableFallback, data, schema.V1)
	unknown, err := msg.UnknownFields()
	if err != nil {
		t.Fatalf("unknown fields: %v", err)
	}
	want := tlv.EncodeField(tlv.I64Field(uint16(schema.FieldExtension), 18))
	if len(unknown) != 1 || unknown[0].Key != "7" || !bytes.Equal(unknown[0].Raw, want) {
		t.Fatalf("unknown = %+v", unknown)
	}
}

func TestTypeMismatchIsMalformed(t *testing.T) {
	testlog.Start(t)
	data := tlv.EncodeField(tlv.U32Field(uint16(schema.FieldTimestamp), 42))
	dec, err := New().NewDecoder(codec.PortableFallback)
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	if _, err := dec.Decode(data, schema.V2); !errors.Is(err, codec.ErrMalformedEncoding) {
		t.Fatalf("expected ErrMalformedEncoding, got %v", err)
	}
}

func TestRaggedFloatsAreMalformed(t *testing.T) {
	testlog.Start(t)
	data := tlv.EncodeField(tlv.Field{ID: uint16(schema.FieldPayload), Type: tlv.TypeF32s, Value: []byte{1, 2, 3}})
	dec, err := New().NewDecoder(codec.PortableFallback)
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	if _, err := dec.Decode(data, schema.V2); !errors.Is(err, codec.ErrMalformedEncoding) {
		t.Fatalf("expected ErrMalformedEncoding, got %v", err)
	}
}

func TestOversizedLengthIsMalformed(t *testing.T) {
	testlog.Start(t)
	data := tlv.EncodeField(tlv.Field{ID: uint16(schema.FieldPayload), Type: tlv.TypeF32s})
	data[3], data[4], data[5], data[6] = 0x7f, 0xff, 0xff, 0xff
	codectest.RequireMalformed(t, New(), data)
}
