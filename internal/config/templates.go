package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "bench":
		return benchTemplate()
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

// benchTemplate renders the defaults in the file layout LoadBenchConfig
// reads.
func benchTemplate() (string, error) {
	def := DefaultBenchConfig()
	file := fileConfig{
		Trials:      def.Trials,
		Seed:        def.Seed,
		ReuseBuffer: def.ReuseBuffer,
		Decode:      def.Decode,
		SizeHint:    def.SizeHint,
		MetricsFile: def.MetricsFile,
		Format:      def.Format,
		Record: fileRecord{
			Version:      def.Record.Version.String(),
			SampleRate:   def.Record.SampleRate,
			SampleCount:  def.Record.SampleCount,
			ChannelCount: def.Record.ChannelCount,
			Frequency:    def.Record.Frequency,
			Amplitude:    def.Record.Amplitude,
			Identity:     def.Record.Identity,
		},
		Entries: def.Entries,
	}
	var buf bytes.Buffer
	buf.WriteString("# wavewire benchmark configuration\n")
	buf.WriteString("# record.extension is left out: add it to make the field present.\n\n")
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(file); err != nil {
		return "", err
	}
	return buf.String(), nil
}
