package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/wavewire/internal/schema"
)

// BenchConfig drives one benchmark run.
type BenchConfig struct {
	Trials      int
	Seed        uint64
	ReuseBuffer bool
	Decode      bool
	SizeHint    int
	MetricsFile string
	Format      string
	Record      RecordConfig
	Entries     []EntryConfig
}

type RecordConfig struct {
	Version      schema.Version
	SampleRate   uint32
	SampleCount  uint32
	ChannelCount uint32
	Frequency    float64
	Amplitude    float64
	Identity     *uint64
	Extension    *int64
}

type EntryConfig struct {
	Name           string `toml:"name"`
	Codec          string `toml:"codec"`
	Backend        string `toml:"backend"`
	Representation string `toml:"representation"`
}

// DefaultBenchConfig compares protobuf and MessagePack on one minute of
// two-channel 16 kHz samples, plus the in-house TLV framing.
func DefaultBenchConfig() BenchConfig {
	return BenchConfig{
		Trials:      1000,
		Seed:        1,
		ReuseBuffer: true,
		Format:      "text",
		Record: RecordConfig{
			Version:      schema.Latest,
			SampleRate:   16000,
			SampleCount:  16000 * 60,
			ChannelCount: 2,
			Frequency:    60,
			Amplitude:    120,
			Identity:     schema.Uint64(11512),
		},
		Entries: []EntryConfig{
			{Name: "protobuf", Codec: "protobuf", Backend: "native", Representation: "native-record"},
			{Name: "msgpack", Codec: "msgpack", Backend: "native", Representation: "native-record"},
			{Name: "msgpack-field-map", Codec: "msgpack", Backend: "native", Representation: "field-map"},
			{Name: "tlv", Codec: "tlv", Backend: "portable", Representation: "native-record"},
		},
	}
}

type fileConfig struct {
	Trials      int           `toml:"trials"`
	Seed        uint64        `toml:"seed"`
	ReuseBuffer bool          `toml:"reuse_buffer"`
	Decode      bool          `toml:"decode"`
	SizeHint    int           `toml:"size_hint"`
	MetricsFile string        `toml:"metrics_file"`
	Format      string        `toml:"format"`
	Record      fileRecord    `toml:"record"`
	Entries     []EntryConfig `toml:"entries"`
}

type fileRecord struct {
	Version      string  `toml:"version"`
	SampleRate   uint32  `toml:"sample_rate"`
	SampleCount  uint32  `toml:"sample_count"`
	ChannelCount uint32  `toml:"channel_count"`
	Frequency    float64 `toml:"frequency"`
	Amplitude    float64 `toml:"amplitude"`
	Identity     *uint64 `toml:"identity,omitempty"`
	Extension    *int64  `toml:"extension,omitempty"`
}

// LoadBenchConfig overlays the keys defined in path onto the defaults.
// An absent identity or extension key keeps the default; setting it makes
// the field present, zero included.
func LoadBenchConfig(path string) (BenchConfig, error) {
	cfg := DefaultBenchConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return BenchConfig{}, fmt.Errorf("load bench config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return BenchConfig{}, fmt.Errorf("load bench config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("trials") {
		cfg.Trials = raw.Trials
	}
	if meta.IsDefined("seed") {
		cfg.Seed = raw.Seed
	}
	if meta.IsDefined("reuse_buffer") {
		cfg.ReuseBuffer = raw.ReuseBuffer
	}
	if meta.IsDefined("decode") {
		cfg.Decode = raw.Decode
	}
	if meta.IsDefined("size_hint") {
		cfg.SizeHint = raw.SizeHint
	}
	if meta.IsDefined("metrics_file") {
		cfg.MetricsFile = strings.TrimSpace(raw.MetricsFile)
	}
	if meta.IsDefined("format") {
		cfg.Format = strings.ToLower(strings.TrimSpace(raw.Format))
	}

	if meta.IsDefined("record", "version") {
		v, err := schema.ParseVersion(raw.Record.Version)
		if err != nil {
			return BenchConfig{}, fmt.Errorf("parse record.version: %w", err)
		}
		cfg.Record.Version = v
	}
	if meta.IsDefined("record", "sample_rate") {
		cfg.Record.SampleRate = raw.Record.SampleRate
	}
	if meta.IsDefined("record", "sample_count") {
		cfg.Record.SampleCount = raw.Record.SampleCount
	}
	if meta.IsDefined("record", "channel_count") {
		cfg.Record.ChannelCount = raw.Record.ChannelCount
	}
	if meta.IsDefined("record", "frequency") {
		cfg.Record.Frequency = raw.Record.Frequency
	}
	if meta.IsDefined("record", "amplitude") {
		cfg.Record.Amplitude = raw.Record.Amplitude
	}
	if meta.IsDefined("record", "identity") {
		cfg.Record.Identity = raw.Record.Identity
	}
	if meta.IsDefined("record", "extension") {
		cfg.Record.Extension = raw.Record.Extension
	}

	if meta.IsDefined("entries") {
		cfg.Entries = normalizeEntries(raw.Entries)
	}

	if err := ValidateBenchConfig(cfg); err != nil {
		return BenchConfig{}, err
	}
	return cfg, nil
}

func normalizeEntries(in []EntryConfig) []EntryConfig {
	out := make([]EntryConfig, 0, len(in))
	for _, e := range in {
		e.Name = strings.TrimSpace(e.Name)
		e.Codec = strings.TrimSpace(e.Codec)
		if e.Name == "" {
			e.Name = e.Codec
		}
		out = append(out, e)
	}
	return out
}

func ValidateBenchConfig(cfg BenchConfig) error {
	if cfg.Trials <= 0 {
		return fmt.Errorf("bench config: trials must be positive")
	}
	if cfg.SizeHint < 0 {
		return fmt.Errorf("bench config: size_hint must not be negative, got %d", cfg.SizeHint)
	}
	if cfg.Format != "text" && cfg.Format != "toml" {
		return fmt.Errorf("bench config: format must be text or toml, got %q", cfg.Format)
	}
	if !cfg.Record.Version.Valid() {
		return fmt.Errorf("bench config: %w", schema.ErrInvalidVersion)
	}
	if cfg.Record.SampleRate == 0 {
		return fmt.Errorf("bench config: record.sample_rate must be positive")
	}
	if cfg.Record.ChannelCount == 0 {
		return fmt.Errorf("bench config: %w", schema.ErrChannelCount)
	}
	if cfg.Record.Extension != nil {
		if _, ok := schema.LookupID(cfg.Record.Version, schema.FieldExtension); !ok {
			return fmt.Errorf("bench config: record.extension is not declared in %s", cfg.Record.Version)
		}
	}
	if len(cfg.Entries) == 0 {
		return fmt.Errorf("bench config: no entries")
	}
	seen := make(map[string]struct{}, len(cfg.Entries))
	for i, e := range cfg.Entries {
		if e.Codec == "" {
			return fmt.Errorf("entries[%d] invalid: codec is required", i)
		}
		if _, dup := seen[e.Name]; dup {
			return fmt.Errorf("entries[%d] invalid: duplicate name %q", i, e.Name)
		}
		seen[e.Name] = struct{}{}
	}
	return nil
}
