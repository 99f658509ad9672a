package schema

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidVersion = errors.New("schema: invalid version")
	ErrChannelCount   = errors.New("schema: channel_count must be at least 1")
	ErrPayloadShape   = errors.New("schema: payload length must equal sample_count * channel_count")
)

// ValidationError reports a record that breaks the contract of its version.
type ValidationError struct {
	Version Version
	Field   string
	Reason  string
	Err     error
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema: %s record: %s", e.Version, e.Reason)
	}
	return fmt.Sprintf("schema: %s record field=%s: %s", e.Version, e.Field, e.Reason)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// Record is one waveform record. Pointer fields carry presence: nil means
// the writer never set them.
type Record struct {
	Version      Version
	Identity     *uint64
	Timestamp    int64
	SampleRate   uint32
	SampleCount  uint32
	ChannelCount uint32
	// Payload is channel-interleaved: ChannelCount values per sample.
	Payload   []float32
	Extension *int64
}

// NewRecord validates r and returns a copy the caller may share read-only.
func NewRecord(r Record) (*Record, error) {
	out := r.Clone()
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Record) Clone() *Record {
	out := *r
	if r.Identity != nil {
		out.Identity = Uint64(*r.Identity)
	}
	if r.Extension != nil {
		out.Extension = Int64(*r.Extension)
	}
	if r.Payload != nil {
		out.Payload = make([]float32, len(r.Payload))
		copy(out.Payload, r.Payload)
	}
	return &out
}

func (r *Record) Validate() error {
	if !r.Version.Valid() {
		return ValidationError{Version: r.Version, Reason: "unknown version", Err: ErrInvalidVersion}
	}
	if r.ChannelCount < 1 {
		return ValidationError{Version: r.Version, Field: NameChannelCount, Reason: "must be at least 1", Err: ErrChannelCount}
	}
	if want := uint64(r.SampleCount) * uint64(r.ChannelCount); uint64(len(r.Payload)) != want {
		return ValidationError{
			Version: r.Version,
			Field:   NamePayload,
			Reason:  fmt.Sprintf("len=%d want sample_count*channel_count=%d", len(r.Payload), want),
			Err:     ErrPayloadShape,
		}
	}
	if r.Extension != nil {
		if _, ok := LookupID(r.Version, FieldExtension); !ok {
			return ValidationError{Version: r.Version, Field: NameExtension, Reason: "not declared in this version"}
		}
	}
	return nil
}

// FieldValue returns the value of spec and whether a writer emits it.
func (r *Record) FieldValue(spec FieldSpec) (Value, bool) {
	var v Value
	set := true
	switch spec.ID {
	case FieldIdentity:
		v = Uint64Value(0)
		if r.Identity != nil {
			v.Uint = *r.Identity
		} else {
			set = false
		}
	case FieldTimestamp:
		v = IntValue(r.Timestamp)
	case FieldSampleRate:
		v = Uint32Value(r.SampleRate)
	case FieldSampleCount:
		v = Uint32Value(r.SampleCount)
	case FieldChannelCount:
		v = Uint32Value(r.ChannelCount)
	case FieldPayload:
		v = FloatsValue(r.Payload)
	case FieldExtension:
		v = IntValue(0)
		if r.Extension != nil {
			v.Int = *r.Extension
		} else {
			set = false
		}
	default:
		return Value{}, false
	}
	switch spec.Presence {
	case Required:
		return v, true
	case Optional:
		return v, set
	default:
		return v, !v.IsZero()
	}
}

// Assign stores v into the field spec names. Optional fields become set.
func (r *Record) Assign(spec FieldSpec, v Value) error {
	v, err := v.Convert(spec)
	if err != nil {
		return err
	}
	switch spec.ID {
	case FieldIdentity:
		r.Identity = Uint64(v.Uint)
	case FieldTimestamp:
		r.Timestamp = v.Int
	case FieldSampleRate:
		r.SampleRate = uint32(v.Uint)
	case FieldSampleCount:
		r.SampleCount = uint32(v.Uint)
	case FieldChannelCount:
		r.ChannelCount = uint32(v.Uint)
	case FieldPayload:
		r.Payload = v.Floats
	case FieldExtension:
		r.Extension = Int64(v.Int)
	default:
		return fmt.Errorf("schema: cannot assign field id %d", spec.ID)
	}
	return nil
}

// SetOptional lists the optional fields of the record's version that were set.
func (r *Record) SetOptional() []string {
	var names []string
	for _, spec := range fieldsByVersion[r.Version] {
		if spec.Presence != Optional {
			continue
		}
		if _, ok := r.FieldValue(spec); ok {
			names = append(names, spec.Name)
		}
	}
	return names
}

func Uint64(v uint64) *uint64 { return &v }

func Int64(v int64) *int64 { return &v }
