package schema

import (
	"errors"
	"testing"

	"github.com/danmuck/wavewire/internal/testutil/testlog"
)

func TestVersionsAreAdditive(t *testing.T) {
	testlog.Start(t)
	versions := Versions()
	for i := 1; i < len(versions); i++ {
		older, newer := versions[i-1], versions[i]
		for _, spec := range Fields(older) {
			next, ok := LookupID(newer, spec.ID)
			if !ok {
				t.Fatalf("%s field %s removed in %s", older, spec.Name, newer)
			}
			if next.Kind != spec.Kind || next.Name != spec.Name {
				t.Fatalf("%s field %s retyped in %s: %+v", older, spec.Name, newer, next)
			}
		}
	}
}

func TestExtensionUndeclaredInV1(t *testing.T) {
	testlog.Start(t)
	if _, ok := Lookup(V1, NameExtension); ok {
		t.Fatalf("v1 must not declare %s", NameExtension)
	}
	spec, ok := Lookup(V2, NameExtension)
	if !ok || spec.Presence != Optional {
		t.Fatalf("v2 extension spec: %+v ok=%v", spec, ok)
	}
	id, _ := Lookup(V1, NameIdentity)
	if id.Presence != Implicit {
		t.Fatalf("v1 identity presence = %s", id.Presence)
	}
}

func TestParseVersion(t *testing.T) {
	testlog.Start(t)
	for raw, want := range map[string]Version{"v1": V1, "V2": V2, " 2 ": V2} {
		got, err := ParseVersion(raw)
		if err != nil || got != want {
			t.Fatalf("ParseVersion(%q) = %v,%v", raw, got, err)
		}
	}
	if _, err := ParseVersion("v9"); err == nil {
		t.Fatalf("expected unknown version error")
	}
}

func TestNewRecordPayloadShape(t *testing.T) {
	testlog.Start(t)
	_, err := NewRecord(Record{
		Version:      V2,
		SampleCount:  3,
		ChannelCount: 2,
		Payload:      []float32{1, 2, 3},
	})
	if !errors.Is(err, ErrPayloadShape) {
		t.Fatalf("expected ErrPayloadShape, got %v", err)
	}
	var ve ValidationError
	if !errors.As(err, &ve) || ve.Field != NamePayload {
		t.Fatalf("expected payload ValidationError, got %v", err)
	}

	rec, err := NewRecord(Record{
		Version:      V2,
		SampleCount:  3,
		ChannelCount: 2,
		Payload:      []float32{1, 2, 3, 4, 5, 6},
	})
	if err != nil {
		t.Fatalf("valid record: %v", err)
	}
	if len(rec.Payload) != int(rec.SampleCount*rec.ChannelCount) {
		t.Fatalf("payload invariant broken: %d", len(rec.Payload))
	}
}

func TestNewRecordRejectsZeroChannels(t *testing.T) {
	testlog.Start(t)
	_, err := NewRecord(Record{Version: V1})
	if !errors.Is(err, ErrChannelCount) {
		t.Fatalf("expected ErrChannelCount, got %v", err)
	}
}

func TestNewRecordRejectsExtensionOnV1(t *testing.T) {
	testlog.Start(t)
	_, err := NewRecord(Record{Version: V1, ChannelCount: 1, Extension: Int64(3)})
	var ve ValidationError
	if !errors.As(err, &ve) || ve.Field != NameExtension {
		t.Fatalf("expected extension ValidationError, got %v", err)
	}
}

func TestNewRecordCopiesInput(t *testing.T) {
	testlog.Start(t)
	payload := []float32{1}
	in := Record{Version: V2, SampleCount: 1, ChannelCount: 1, Payload: payload, Identity: Uint64(5)}
	rec, err := NewRecord(in)
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	payload[0] = 9
	*in.Identity = 6
	if rec.Payload[0] != 1 || *rec.Identity != 5 {
		t.Fatalf("record aliases caller data: %+v", rec)
	}
}

func TestFieldValueEmission(t *testing.T) {
	testlog.Start(t)
	rec := &Record{Version: V2, ChannelCount: 1, Extension: Int64(0)}

	ts, _ := Lookup(V2, NameTimestamp)
	if _, ok := rec.FieldValue(ts); !ok {
		t.Fatalf("required zero timestamp must be emitted")
	}
	ext, _ := Lookup(V2, NameExtension)
	if v, ok := rec.FieldValue(ext); !ok || v.Int != 0 {
		t.Fatalf("explicit zero extension must be emitted: %v %v", v, ok)
	}
	id2, _ := Lookup(V2, NameIdentity)
	if _, ok := rec.FieldValue(id2); ok {
		t.Fatalf("unset optional identity must not be emitted")
	}

	v1 := &Record{Version: V1, ChannelCount: 1, Identity: Uint64(0)}
	id1, _ := Lookup(V1, NameIdentity)
	if _, ok := v1.FieldValue(id1); ok {
		t.Fatalf("implicit zero identity must not be emitted")
	}
	v1.Identity = Uint64(11512)
	if v, ok := v1.FieldValue(id1); !ok || v.Uint != 11512 {
		t.Fatalf("implicit non-zero identity: %v %v", v, ok)
	}
}

func TestSetOptional(t *testing.T) {
	testlog.Start(t)
	rec := &Record{Version: V2, ChannelCount: 1, Extension: Int64(18)}
	got := rec.SetOptional()
	if len(got) != 1 || got[0] != NameExtension {
		t.Fatalf("set optional = %v", got)
	}
	if got := (&Record{Version: V1, ChannelCount: 1, Identity: Uint64(4)}).SetOptional(); len(got) != 0 {
		t.Fatalf("v1 has no optional fields, got %v", got)
	}
}

func TestValueConvert(t *testing.T) {
	testlog.Start(t)
	spec, _ := Lookup(V2, NameSampleRate)
	v, err := Uint64Value(16000).Convert(spec)
	if err != nil || v.Kind != KindUint32 || v.Uint != 16000 {
		t.Fatalf("convert: %+v %v", v, err)
	}
	if _, err := Uint64Value(1 << 40).Convert(spec); err == nil {
		t.Fatalf("expected overflow error")
	}
	if _, err := IntValue(1).Convert(spec); err == nil {
		t.Fatalf("expected kind mismatch")
	}
}
