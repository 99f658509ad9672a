// Package evolution classifies a decoded message against the field set of
// the reader's schema version.
//
// Every field the reader declares resolves to exactly one outcome. Required
// fields missing from the wire fail the whole resolution; fields the reader
// does not declare are never exposed by name but survive passthrough.
package evolution

import (
	"errors"
	"fmt"

	"github.com/danmuck/wavewire/internal/codec"
	"github.com/danmuck/wavewire/internal/observability"
	"github.com/danmuck/wavewire/internal/schema"
	"github.com/rs/zerolog/log"
)

const (
	outcomeMissingRequired = "missing_required"
	outcomeMalformed       = "malformed"
)

// Result is a message resolved under one reader version.
type Result struct {
	reader   schema.Version
	backend  codec.Backend
	msg      codec.Message
	outcomes []Outcome
	byName   map[string]int
	record   *schema.Record
}

// Resolve decodes data with dec as a reader of version reader sees it.
func Resolve(data []byte, dec codec.Decoder, reader schema.Version) (*Result, error) {
	if !reader.Valid() {
		return nil, fmt.Errorf("%w: %d", schema.ErrInvalidVersion, reader)
	}
	if dec == nil {
		return nil, errors.New("evolution: nil decoder")
	}
	msg, err := dec.Decode(data, reader)
	if err != nil {
		if errors.Is(err, codec.ErrMalformedEncoding) {
			observability.RecordEvolutionOutcome(outcomeMalformed)
		}
		return nil, fmt.Errorf("evolution: decode: %w", err)
	}

	specs := schema.Fields(reader)
	res := &Result{
		reader:   reader,
		backend:  dec.Backend(),
		msg:      msg,
		outcomes: make([]Outcome, 0, len(specs)),
		byName:   make(map[string]int, len(specs)),
		record:   &schema.Record{Version: reader},
	}
	for _, spec := range specs {
		out, onWire, err := classify(spec, msg, reader)
		if err != nil {
			observability.RecordEvolutionOutcome(outcomeMissingRequired)
			log.Debug().Err(err).Stringer("reader", reader).Msg("resolution failed")
			return nil, err
		}
		if onWire {
			if err := res.record.Assign(spec, out.Value); err != nil {
				observability.RecordEvolutionOutcome(outcomeMalformed)
				return nil, codec.Malformed("field %s: %v", spec.Name, err)
			}
		}
		res.byName[spec.Name] = len(res.outcomes)
		res.outcomes = append(res.outcomes, out)
	}
	if err := res.record.Validate(); err != nil {
		observability.RecordEvolutionOutcome(outcomeMalformed)
		return nil, fmt.Errorf("%w: %w", codec.ErrMalformedEncoding, err)
	}
	for _, out := range res.outcomes {
		observability.RecordEvolutionOutcome(out.Kind.String())
	}
	log.Debug().
		Stringer("reader", reader).
		Stringer("backend", res.backend).
		Int("fields", len(res.outcomes)).
		Strs("set", res.SetFields()).
		Msg("message resolved")
	return res, nil
}

func classify(spec schema.FieldSpec, msg codec.Message, reader schema.Version) (Outcome, bool, error) {
	v, ok := msg.Lookup(spec.ID)
	if ok {
		kind := Present
		if spec.Presence == schema.Implicit {
			kind = Implicit
		}
		return Outcome{Field: spec, Kind: kind, Value: v}, true, nil
	}
	zero := schema.Zero(spec.Kind)
	switch spec.Presence {
	case schema.Required:
		return Outcome{}, false, MissingRequiredFieldError{Version: reader, Field: spec.Name, ID: spec.ID}
	case schema.Optional:
		return Outcome{Field: spec, Kind: AbsentDefaulted, Value: zero}, false, nil
	case schema.Implicit:
		return Outcome{Field: spec, Kind: Implicit, Value: zero}, false, nil
	default:
		// an absent repeated field is an empty one
		return Outcome{Field: spec, Kind: Present, Value: zero}, false, nil
	}
}

func (r *Result) Version() schema.Version { return r.reader }

// Backend is the decoder backend that produced the result.
func (r *Result) Backend() codec.Backend { return r.backend }

func (r *Result) Outcome(name string) (Outcome, error) {
	i, ok := r.byName[name]
	if !ok {
		return Outcome{}, UnknownFieldAccessError{Version: r.reader, Field: name}
	}
	return r.outcomes[i], nil
}

// Get returns the resolved value of a reader-declared field.
func (r *Result) Get(name string) (schema.Value, error) {
	out, err := r.Outcome(name)
	if err != nil {
		return schema.Value{}, err
	}
	return out.Value, nil
}

// Has reports whether the writer set the field, independent of its value.
func (r *Result) Has(name string) (bool, error) {
	out, err := r.Outcome(name)
	if err != nil {
		return false, err
	}
	switch out.Field.Presence {
	case schema.Implicit:
		return false, fmt.Errorf("%w: %s", ErrNoPresence, name)
	case schema.Repeated:
		return len(out.Value.Floats) > 0, nil
	default:
		return out.Kind == Present, nil
	}
}

// Outcomes lists every reader-declared field in field-id order.
func (r *Result) Outcomes() []Outcome {
	out := make([]Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// Record returns a copy of the typed record in the reader's version.
func (r *Result) Record() *schema.Record {
	return r.record.Clone()
}

// SetFields lists the optional fields the writer set.
func (r *Result) SetFields() []string {
	var names []string
	for _, out := range r.outcomes {
		if out.Field.Presence == schema.Optional && out.Kind == Present {
			names = append(names, out.Field.Name)
		}
	}
	return names
}

// UnknownFields enumerates fields the reader does not declare, when the
// decoder backend can.
func (r *Result) UnknownFields() ([]codec.RawField, error) {
	return r.msg.UnknownFields()
}

// Passthrough re-serializes the message without modification. Fields the
// reader does not declare are carried through.
func (r *Result) Passthrough() ([]byte, error) {
	return r.msg.Marshal()
}
