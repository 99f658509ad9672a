package builtin

import (
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/wavewire/internal/codec"
	"github.com/danmuck/wavewire/internal/testutil/testlog"
)

func TestDefaultRegistersAllCodecs(t *testing.T) {
	testlog.Start(t)
	reg := Default()
	if got := strings.Join(reg.Names(), ","); got != "msgpack,protobuf,tlv" {
		t.Fatalf("names = %s", got)
	}
	if _, err := reg.Resolve(" protobuf "); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := reg.Resolve("avro"); !errors.Is(err, codec.ErrUnknownCodec) {
		t.Fatalf("expected ErrUnknownCodec, got %v", err)
	}
}

func TestPortableHidesNativeBackends(t *testing.T) {
	testlog.Start(t)
	reg := Portable()
	for _, name := range reg.Names() {
		c, err := reg.Resolve(name)
		if err != nil {
			t.Fatalf("resolve %s: %v", name, err)
		}
		if codec.Supports(c, codec.Native) {
			t.Fatalf("%s offers native in portable registry", name)
		}
	}
}
