package evolution

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/danmuck/wavewire/internal/codec"
	"github.com/danmuck/wavewire/internal/schema"
)

// ScenarioRecord is the v2 record of the compatibility walk-through: the
// writer sets the extension field and never sets identity.
func ScenarioRecord(samples, channels uint32) (*schema.Record, error) {
	payload := make([]float32, int(samples)*int(channels))
	copy(payload, []float32{12.4, 86.3, 19.8})
	for i := 3; i < len(payload); i++ {
		payload[i] = float32(i) * 0.25
	}
	return schema.NewRecord(schema.Record{
		Version:      schema.V2,
		Timestamp:    42,
		SampleRate:   16000,
		SampleCount:  samples,
		ChannelCount: channels,
		Payload:      payload,
		Extension:    schema.Int64(18),
	})
}

// Violation is one broken expectation found by Check.
type Violation struct {
	Step string
	Err  error
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %v", v.Step, v.Err)
}

type CheckReport struct {
	Codec   string
	Backend codec.Backend
	// Introspection reports whether the backend enumerates unknown fields.
	Introspection bool
	Violations    []Violation
}

func (r CheckReport) OK() bool { return len(r.Violations) == 0 }

// Check runs the compatibility scenario in memory against one backend of c:
// a v2 writer, a v1 and a v2 reader, explicit zeros, passthrough and a
// truncated message. An error means the scenario could not run at all.
func Check(c codec.Codec, b codec.Backend) (CheckReport, error) {
	report := CheckReport{Codec: c.Name(), Backend: b}
	enc, err := c.NewEncoder(codec.EncoderOptions{Backend: b, Representation: codec.NativeRecord})
	if err != nil {
		return report, err
	}
	dec, err := c.NewDecoder(b)
	if err != nil {
		return report, err
	}
	rec, err := ScenarioRecord(128, 2)
	if err != nil {
		return report, err
	}
	encode := func(r *schema.Record) ([]byte, error) {
		in, err := enc.Prepare(r)
		if err != nil {
			return nil, err
		}
		return enc.Encode(nil, in)
	}
	fail := func(step string, format string, args ...any) {
		report.Violations = append(report.Violations, Violation{Step: step, Err: fmt.Errorf(format, args...)})
	}

	data, err := encode(rec)
	if err != nil {
		return report, err
	}

	if v1, err := Resolve(data, dec, schema.V1); err != nil {
		fail("v1 reader", "resolve: %w", err)
	} else {
		if ts, err := v1.Get(schema.NameTimestamp); err != nil || ts.Int != 42 {
			fail("v1 reader", "timestamp = %v, %v", ts, err)
		}
		var access UnknownFieldAccessError
		if _, err := v1.Get(schema.NameExtension); !errors.As(err, &access) {
			fail("v1 reader", "extension access: want UnknownFieldAccessError, got %v", err)
		}
		if _, err := v1.Has(schema.NameIdentity); !errors.Is(err, ErrNoPresence) {
			fail("v1 reader", "identity presence: want ErrNoPresence, got %v", err)
		}
		if out, err := v1.Passthrough(); err != nil || !bytes.Equal(out, data) {
			fail("passthrough", "re-serialized %d bytes of %d, err=%v", len(out), len(data), err)
		}
		unknown, err := v1.UnknownFields()
		switch {
		case errors.Is(err, codec.ErrUnsupportedIntrospection):
		case err != nil:
			fail("introspection", "%w", err)
		case len(unknown) != 1:
			fail("introspection", "want one unknown field, got %d", len(unknown))
		default:
			report.Introspection = true
		}
	}

	if v2, err := Resolve(data, dec, schema.V2); err != nil {
		fail("v2 reader", "resolve: %w", err)
	} else {
		if has, err := v2.Has(schema.NameExtension); err != nil || !has {
			fail("v2 reader", "extension presence = %v, %v", has, err)
		}
		if ext, err := v2.Get(schema.NameExtension); err != nil || ext.Int != 18 {
			fail("v2 reader", "extension = %v, %v", ext, err)
		}
		if has, err := v2.Has(schema.NameIdentity); err != nil || has {
			fail("v2 reader", "unset identity presence = %v, %v", has, err)
		}
	}

	zeros := rec.Clone()
	zeros.Identity = schema.Uint64(0)
	zeros.Extension = schema.Int64(0)
	if zdata, err := encode(zeros); err != nil {
		fail("explicit zero", "encode: %w", err)
	} else if res, err := Resolve(zdata, dec, schema.V2); err != nil {
		fail("explicit zero", "resolve: %w", err)
	} else {
		for _, name := range []string{schema.NameIdentity, schema.NameExtension} {
			if has, err := res.Has(name); err != nil || !has {
				fail("explicit zero", "%s presence = %v, %v", name, has, err)
			}
		}
	}

	if _, err := Resolve(data[:len(data)-1], dec, schema.V2); !errors.Is(err, codec.ErrMalformedEncoding) {
		fail("malformed", "truncated message: want ErrMalformedEncoding, got %v", err)
	}
	return report, nil
}
