package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/wavewire/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog/log"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(evolutionOutcomes.WithLabelValues("present"))
	RecordEvolutionOutcome("present")
	if got := testutil.ToFloat64(evolutionOutcomes.WithLabelValues("present")); got != before+1 {
		t.Fatalf("outcome counter = %v, want %v", got, before+1)
	}

	RecordBackendFallback("tlv", "native")
	if got := testutil.ToFloat64(benchFallbacks.WithLabelValues("tlv", "native")); got < 1 {
		t.Fatalf("fallback counter = %v", got)
	}

	log.Info().Msg("observability/metrics: registration idempotent and recording paths executed")
}

func TestRecordBenchEntrySetsGauges(t *testing.T) {
	testlog.Start(t)
	RecordBenchEntry(BenchSample{
		Entry:          "protobuf",
		Codec:          "protobuf",
		Backend:        "native",
		Representation: "native-record",
		SizeBytes:      1046,
		ColdStart:      time.Millisecond,
		Encode:         2 * time.Second,
		Trials:         10,
		Success:        true,
	})
	if got := testutil.ToFloat64(benchEncodedSize.WithLabelValues("protobuf", "protobuf", "native", "native-record")); got != 1046 {
		t.Fatalf("size gauge = %v", got)
	}
	if got := testutil.ToFloat64(benchElapsed.WithLabelValues("protobuf", "protobuf", "native", "native-record", "encode")); got != 2 {
		t.Fatalf("elapsed gauge = %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	testlog.Start(t)
	RecordEvolutionOutcome("implicit")
	path := filepath.Join(t.TempDir(), "wavewire.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(raw), `wavewire_evolution_outcomes_total{outcome="implicit"}`) {
		t.Fatalf("textfile missing outcome counter:\n%s", raw)
	}
}
