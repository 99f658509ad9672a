package config

import (
	"fmt"

	"github.com/danmuck/wavewire/internal/bench"
	"github.com/danmuck/wavewire/internal/codec"
)

// BenchEntries resolves configured entries against reg.
func BenchEntries(cfg BenchConfig, reg *codec.Registry) ([]bench.Entry, error) {
	entries := make([]bench.Entry, 0, len(cfg.Entries))
	for i, e := range cfg.Entries {
		c, err := reg.Resolve(e.Codec)
		if err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		b, err := codec.ParseBackend(e.Backend)
		if err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		r, err := codec.ParseRepresentation(e.Representation)
		if err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		entries = append(entries, bench.Entry{Name: e.Name, Codec: c, Backend: b, Representation: r})
	}
	return entries, nil
}

func Waveform(rc RecordConfig) bench.Waveform {
	return bench.Waveform{
		Version:      rc.Version,
		SampleRate:   rc.SampleRate,
		SampleCount:  rc.SampleCount,
		ChannelCount: rc.ChannelCount,
		Frequency:    rc.Frequency,
		Amplitude:    rc.Amplitude,
		Identity:     rc.Identity,
		Extension:    rc.Extension,
	}
}

func HarnessConfig(cfg BenchConfig) bench.Config {
	return bench.Config{
		ReuseBuffer: cfg.ReuseBuffer,
		Decode:      cfg.Decode,
		SizeHint:    cfg.SizeHint,
		Seed:        cfg.Seed,
	}
}
