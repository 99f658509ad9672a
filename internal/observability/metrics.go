package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	evolutionOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wavewire",
			Subsystem: "evolution",
			Name:      "outcomes_total",
			Help:      "Field resolution outcomes by kind.",
		},
		[]string{"outcome"},
	)
	benchEncodedSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "wavewire",
			Subsystem: "bench",
			Name:      "encoded_size_bytes",
			Help:      "Encoded size of the benchmark record per entry.",
		},
		[]string{"entry", "codec", "backend", "representation"},
	)
	benchElapsed = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "wavewire",
			Subsystem: "bench",
			Name:      "elapsed_seconds",
			Help:      "Elapsed time of the last benchmark run per entry and phase.",
		},
		[]string{"entry", "codec", "backend", "representation", "phase"},
	)
	benchTrials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wavewire",
			Subsystem: "bench",
			Name:      "trials_total",
			Help:      "Benchmark trials executed per entry.",
		},
		[]string{"entry", "codec", "backend", "success"},
	)
	benchFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wavewire",
			Subsystem: "bench",
			Name:      "backend_fallbacks_total",
			Help:      "Entries that ran on the portable backend instead of the requested one.",
		},
		[]string{"codec", "requested"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(evolutionOutcomes, benchEncodedSize, benchElapsed, benchTrials, benchFallbacks)
	})
}

func RecordEvolutionOutcome(outcome string) {
	RegisterMetrics()
	evolutionOutcomes.WithLabelValues(outcome).Inc()
}

// BenchSample is what the harness publishes for one finished entry.
type BenchSample struct {
	Entry          string
	Codec          string
	Backend        string
	Representation string
	SizeBytes      int
	ColdStart      time.Duration
	Encode         time.Duration
	Decode         time.Duration
	Trials         int
	Success        bool
}

func RecordBenchEntry(s BenchSample) {
	RegisterMetrics()
	benchEncodedSize.WithLabelValues(s.Entry, s.Codec, s.Backend, s.Representation).Set(float64(s.SizeBytes))
	benchElapsed.WithLabelValues(s.Entry, s.Codec, s.Backend, s.Representation, "cold_start").Set(s.ColdStart.Seconds())
	benchElapsed.WithLabelValues(s.Entry, s.Codec, s.Backend, s.Representation, "encode").Set(s.Encode.Seconds())
	if s.Decode > 0 {
		benchElapsed.WithLabelValues(s.Entry, s.Codec, s.Backend, s.Representation, "decode").Set(s.Decode.Seconds())
	}
	benchTrials.WithLabelValues(s.Entry, s.Codec, s.Backend, strconv.FormatBool(s.Success)).Add(float64(s.Trials))
}

func RecordBackendFallback(codec, requested string) {
	RegisterMetrics()
	benchFallbacks.WithLabelValues(codec, requested).Inc()
}

// WriteTextfile dumps the default registry in the node_exporter textfile
// format.
func WriteTextfile(path string) error {
	RegisterMetrics()
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
