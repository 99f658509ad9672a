package artifact

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/wavewire/internal/testutil/testlog"
)

func TestWriteReadRoundTrip(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "waveform.bin")
	data := []byte{0x10, 0x2a, 0x18, 0x80, 0x7d}
	if err := Write(path, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("artifact mismatch: %x", got)
	}
}

func TestWriteReplacesAndLeavesNoTempFiles(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "waveform.bin")
	if err := Write(path, []byte("first")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Write(path, []byte("2")); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "2" {
		t.Fatalf("expected replaced contents, got %q", got)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the artifact, got %d entries", len(entries))
	}
}

func TestReadMissing(t *testing.T) {
	testlog.Start(t)
	_, err := Read(filepath.Join(t.TempDir(), "missing.bin"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestWriteMissingDir(t *testing.T) {
	testlog.Start(t)
	if err := Write(filepath.Join(t.TempDir(), "nope", "waveform.bin"), nil); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
