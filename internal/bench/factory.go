package bench

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/danmuck/wavewire/internal/schema"
)

// Clock supplies wall time to record factories and trial timers.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// RecordFactory produces the single record every entry of a run encodes.
type RecordFactory interface {
	Record() (*schema.Record, error)
}

// Waveform describes the synthetic signal: a sine per channel plus
// standard-normal noise, channel-interleaved.
type Waveform struct {
	Version      schema.Version
	SampleRate   uint32
	SampleCount  uint32
	ChannelCount uint32
	Frequency    float64
	Amplitude    float64
	Identity     *uint64
	Extension    *int64
}

// DefaultWaveform is one minute of 16 kHz two-channel mains-like voltage.
func DefaultWaveform() Waveform {
	return Waveform{
		Version:      schema.Latest,
		SampleRate:   16000,
		SampleCount:  16000 * 60,
		ChannelCount: 2,
		Frequency:    60,
		Amplitude:    120,
		Identity:     schema.Uint64(11512),
	}
}

// WaveformFactory draws noise from an explicit generator, so equal seeds
// give equal payloads.
type WaveformFactory struct {
	shape Waveform
	rng   *rand.Rand
	clock Clock
}

// NewWaveformFactory seeds a PCG generator with seed.
func NewWaveformFactory(shape Waveform, seed uint64, clock Clock) *WaveformFactory {
	return NewWaveformFactoryWithRand(shape, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), clock)
}

func NewWaveformFactoryWithRand(shape Waveform, rng *rand.Rand, clock Clock) *WaveformFactory {
	if clock == nil {
		clock = SystemClock{}
	}
	return &WaveformFactory{shape: shape, rng: rng, clock: clock}
}

func (f *WaveformFactory) Record() (*schema.Record, error) {
	s := f.shape
	if s.SampleRate == 0 {
		return nil, errors.New("bench: sample_rate must be positive")
	}
	n := uint64(s.SampleCount) * uint64(s.ChannelCount)
	payload := make([]float32, 0, n)
	for i := uint32(0); i < s.SampleCount; i++ {
		t := float64(i) / float64(s.SampleRate)
		wave := s.Amplitude * math.Sin(2*math.Pi*s.Frequency*t)
		for c := uint32(0); c < s.ChannelCount; c++ {
			payload = append(payload, float32(wave+f.rng.NormFloat64()))
		}
	}
	return schema.NewRecord(schema.Record{
		Version:      s.Version,
		Identity:     s.Identity,
		Timestamp:    f.clock.Now().UnixNano(),
		SampleRate:   s.SampleRate,
		SampleCount:  s.SampleCount,
		ChannelCount: s.ChannelCount,
		Payload:      payload,
		Extension:    s.Extension,
	})
}
