package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/wavewire/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestProduceThenConsumeAcrossVersions(t *testing.T) {
	testlog.Start(t)
	for _, name := range []string{"protobuf", "msgpack", "tlv"} {
		path := filepath.Join(t.TempDir(), name+".bin")
		out, err := run(t, "produce", "--out", path, "--codec", name)
		require.NoError(t, err, out)
		require.Contains(t, out, "set: [extension_field]")

		out, err = run(t, "consume", "--in", path, "--codec", name, "--version", "v1")
		require.NoError(t, err, out)
		require.Contains(t, out, "reader=v1")
		require.Contains(t, out, "presence not tracked")
		require.Contains(t, out, "access extension_field: not declared by the v1 reader")

		out, err = run(t, "consume", "--in", path, "--codec", name, "--version", "v2")
		require.NoError(t, err, out)
		require.Contains(t, out, "access extension_field: 18")
		require.Contains(t, out, "set optional fields: [extension_field]")
	}
}

func TestProduceExplicitZeroIdentity(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "zero.bin")
	out, err := run(t, "produce", "--out", path, "--identity", "0", "--no-extension")
	require.NoError(t, err, out)
	require.Contains(t, out, "set: [identity]")

	out, err = run(t, "consume", "--in", path, "--version", "v2", "--field", "identity")
	require.NoError(t, err, out)
	require.Contains(t, out, "set optional fields: [identity]")
}

func TestConsumePortableReportsOpaqueUnknown(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "v2.bin")
	_, err := run(t, "produce", "--out", path)
	require.NoError(t, err)
	out, err := run(t, "--portable", "consume", "--in", path, "--version", "v1")
	require.NoError(t, err, out)
	require.Contains(t, out, "native backend unavailable")
	require.Contains(t, out, "introspection unsupported")
}

func TestConsumeMissingFile(t *testing.T) {
	testlog.Start(t)
	_, err := run(t, "consume", "--in", filepath.Join(t.TempDir(), "missing.bin"))
	require.Error(t, err)
}

func TestCheckAllCodecs(t *testing.T) {
	testlog.Start(t)
	out, err := run(t, "check")
	require.NoError(t, err, out)
	require.NotContains(t, out, "FAIL")
	require.Contains(t, out, "ok    tlv/portable (introspection supported)")
	require.Contains(t, out, "ok    protobuf/portable (introspection unsupported)")

	_, err = run(t, "check", "--codec", "avro")
	require.Error(t, err)
}

func TestBenchFromConfig(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bench.toml")
	out, err := run(t, "config", "init", "--output", cfgPath)
	require.NoError(t, err, out)

	raw, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	small := strings.Replace(string(raw), "sample_count = 960000", "sample_count = 64", 1)
	require.NotEqual(t, string(raw), small, "template must carry the default sample_count")
	require.NoError(t, os.WriteFile(cfgPath, []byte(small), 0o600))

	out, err = run(t, "config", "validate", "--input", cfgPath)
	require.NoError(t, err, out)

	metrics := filepath.Join(dir, "wavewire.prom")
	out, err = run(t, "bench", "--config", cfgPath, "--trials", "3", "--format", "toml", "--metrics-file", metrics)
	require.NoError(t, err, out)
	require.Contains(t, out, "run_id = ")
	require.Contains(t, out, "msgpack-field-map")

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	require.Contains(t, string(prom), "wavewire_bench_encoded_size_bytes")
}

func TestSchemaPrintsDescriptor(t *testing.T) {
	testlog.Start(t)
	out, err := run(t, "schema", "--version", "v1")
	require.NoError(t, err, out)
	require.Contains(t, out, "WaveformData")
	require.NotContains(t, out, "extension_field")

	out, err = run(t, "schema", "--version", "v2")
	require.NoError(t, err, out)
	require.Contains(t, out, "extension_field")
}
