// Package bench measures encoded size and encode/decode time of one record
// across codec entries.
//
// Every entry of a run encodes the same record. Construction of the encoder
// is timed apart from the trial series, and the result of each entry records
// which backend and which input representation actually ran, so numbers
// taken on different backends or representations are never presented as
// comparable. The harness does not rank entries.
package bench

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/wavewire/internal/codec"
	"github.com/danmuck/wavewire/internal/observability"
	"github.com/danmuck/wavewire/internal/schema"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
)

var (
	ErrNoTrials      = errors.New("bench: trials must be positive")
	ErrNoEntries     = errors.New("bench: no entries")
	ErrSizeUnstable  = errors.New("bench: encoded size changed between trials")
	ErrDuplicateName = errors.New("bench: duplicate entry name")
)

// Entry is one codec configuration under test.
type Entry struct {
	Name           string
	Codec          codec.Codec
	Backend        codec.Backend
	Representation codec.Representation
}

// TrialError is a failure inside one entry. Trial is zero-based; -1 marks a
// failure before the first trial.
type TrialError struct {
	Entry string
	Trial int
	Err   error
}

func (e TrialError) Error() string {
	if e.Trial < 0 {
		return fmt.Sprintf("bench: entry %s: setup: %v", e.Entry, e.Err)
	}
	return fmt.Sprintf("bench: entry %s: trial %d: %v", e.Entry, e.Trial, e.Err)
}

func (e TrialError) Unwrap() error {
	return e.Err
}

// Metrics is the measurement of one entry.
type Metrics struct {
	Codec          string
	Representation codec.Representation
	Requested      codec.Backend
	Backend        codec.Backend
	// Fallback is set when Backend differs from Requested.
	Fallback      bool
	SizeBytes     int
	Trials        int
	ColdStart     time.Duration
	Elapsed       time.Duration
	DecodeElapsed time.Duration
	Err           error
}

// PerTrial is the mean encode time of one trial.
func (m Metrics) PerTrial() time.Duration {
	if m.Trials == 0 {
		return 0
	}
	return m.Elapsed / time.Duration(m.Trials)
}

type Report struct {
	RunID   ksuid.KSUID
	Started time.Time
	Trials  int
	Seed    uint64
	Version schema.Version
	Entries map[string]Metrics
	// Order keeps entries in the order they were given to Run.
	Order []string
}

type Config struct {
	// ReuseBuffer encodes every trial into the same destination buffer.
	// When false each trial allocates.
	ReuseBuffer bool
	// Decode adds a timed decode series under the writer's version.
	Decode bool
	// SizeHint presizes encoder buffers; zero lets the encoders grow.
	SizeHint int
	// Seed is reported only; the factory owns randomness.
	Seed uint64
}

func DefaultConfig() Config {
	return Config{ReuseBuffer: true}
}

type Harness struct {
	cfg   Config
	clock Clock
}

func New(cfg Config, clock Clock) *Harness {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Harness{cfg: cfg, clock: clock}
}

// Run measures every entry against one record from factory. Entries that
// fail keep their partial metrics with Err set; the returned error joins
// every entry failure.
func (h *Harness) Run(entries []Entry, factory RecordFactory, trials int) (Report, error) {
	if trials <= 0 {
		return Report{}, fmt.Errorf("%w: %d", ErrNoTrials, trials)
	}
	if len(entries) == 0 {
		return Report{}, ErrNoEntries
	}
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" || e.Codec == nil {
			return Report{}, fmt.Errorf("bench: entry[%d] needs a name and a codec", i)
		}
		if _, dup := seen[name]; dup {
			return Report{}, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		seen[name] = struct{}{}
	}
	rec, err := factory.Record()
	if err != nil {
		return Report{}, fmt.Errorf("bench: build record: %w", err)
	}

	report := Report{
		RunID:   ksuid.New(),
		Started: h.clock.Now(),
		Trials:  trials,
		Seed:    h.cfg.Seed,
		Version: rec.Version,
		Entries: make(map[string]Metrics, len(entries)),
		Order:   make([]string, 0, len(entries)),
	}
	logger := log.With().Str("run_id", report.RunID.String()).Logger()
	logger.Info().Int("entries", len(entries)).Int("trials", trials).Int("samples", len(rec.Payload)).Msg("bench run starting")

	var errs []error
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		m := h.runEntry(name, e, rec, trials)
		if m.Err != nil {
			errs = append(errs, m.Err)
			logger.Error().Err(m.Err).Str("entry", name).Msg("bench entry failed")
		} else {
			logger.Info().
				Str("entry", name).
				Stringer("backend", m.Backend).
				Stringer("representation", m.Representation).
				Int("size_bytes", m.SizeBytes).
				Dur("elapsed", m.Elapsed).
				Msg("bench entry done")
		}
		observability.RecordBenchEntry(observability.BenchSample{
			Entry:          name,
			Codec:          m.Codec,
			Backend:        m.Backend.String(),
			Representation: m.Representation.String(),
			SizeBytes:      m.SizeBytes,
			ColdStart:      m.ColdStart,
			Encode:         m.Elapsed,
			Decode:         m.DecodeElapsed,
			Trials:         m.Trials,
			Success:        m.Err == nil,
		})
		report.Entries[name] = m
		report.Order = append(report.Order, name)
	}
	return report, errors.Join(errs...)
}

func (h *Harness) runEntry(name string, e Entry, rec *schema.Record, trials int) Metrics {
	repr := e.Representation
	if repr == 0 {
		repr = codec.NativeRecord
	}
	requested := e.Backend
	if requested == 0 {
		requested = codec.Native
	}
	m := Metrics{Codec: e.Codec.Name(), Representation: repr, Requested: requested, Backend: requested}
	fail := func(trial int, err error) Metrics {
		m.Err = TrialError{Entry: name, Trial: trial, Err: err}
		return m
	}

	start := h.clock.Now()
	enc, backend, err := h.newEncoder(e.Codec, requested, repr)
	if err != nil {
		return fail(-1, err)
	}
	m.Backend = backend
	m.Fallback = backend != requested
	in, err := enc.Prepare(rec)
	if err != nil {
		return fail(-1, err)
	}
	m.ColdStart = h.clock.Now().Sub(start)

	encoded, err := enc.Encode(nil, in)
	if err != nil {
		return fail(-1, err)
	}
	m.SizeBytes = len(encoded)

	var buf []byte
	if h.cfg.ReuseBuffer {
		buf = make([]byte, 0, cap(encoded))
	}
	start = h.clock.Now()
	for i := 0; i < trials; i++ {
		var dst []byte
		if h.cfg.ReuseBuffer {
			dst = buf[:0]
		}
		out, err := enc.Encode(dst, in)
		if err != nil {
			m.Elapsed = h.clock.Now().Sub(start)
			return fail(i, err)
		}
		if len(out) != m.SizeBytes {
			m.Elapsed = h.clock.Now().Sub(start)
			return fail(i, fmt.Errorf("%w: %d then %d bytes", ErrSizeUnstable, m.SizeBytes, len(out)))
		}
		if h.cfg.ReuseBuffer {
			buf = out
		}
		m.Trials++
	}
	m.Elapsed = h.clock.Now().Sub(start)

	if !h.cfg.Decode {
		return m
	}
	dec, err := e.Codec.NewDecoder(backend)
	if err != nil {
		return fail(-1, err)
	}
	start = h.clock.Now()
	for i := 0; i < trials; i++ {
		if _, err := dec.Decode(encoded, rec.Version); err != nil {
			m.DecodeElapsed = h.clock.Now().Sub(start)
			return fail(i, err)
		}
	}
	m.DecodeElapsed = h.clock.Now().Sub(start)
	return m
}

// newEncoder builds the requested backend or falls back to the portable one.
func (h *Harness) newEncoder(c codec.Codec, requested codec.Backend, repr codec.Representation) (codec.Encoder, codec.Backend, error) {
	opts := codec.EncoderOptions{Backend: requested, Representation: repr, SizeHint: h.cfg.SizeHint}
	enc, err := c.NewEncoder(opts)
	if err == nil {
		return enc, requested, nil
	}
	if !errors.Is(err, codec.ErrBackendUnavailable) || requested == codec.PortableFallback {
		return nil, 0, err
	}
	log.Warn().
		Str("codec", c.Name()).
		Stringer("requested", requested).
		Stringer("backend", codec.PortableFallback).
		Msg("backend unavailable, falling back; timings are not comparable with the requested backend")
	observability.RecordBackendFallback(c.Name(), requested.String())
	opts.Backend = codec.PortableFallback
	enc, err = c.NewEncoder(opts)
	if err != nil {
		return nil, 0, err
	}
	return enc, codec.PortableFallback, nil
}
