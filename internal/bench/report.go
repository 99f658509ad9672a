package bench

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// WriteText renders the report as an aligned table. Entries on a fallback
// backend are flagged in the backend column.
func (r Report) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "run %s  trials=%d  seed=%d  record=%s\n", r.RunID, r.Trials, r.Seed, r.Version); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTRY\tCODEC\tBACKEND\tREPRESENTATION\tSIZE(KiB)\tCOLD START\tENCODE\tPER TRIAL\tDECODE\tERROR")
	for _, name := range r.Order {
		m := r.Entries[name]
		backend := m.Backend.String()
		if m.Fallback {
			backend = fmt.Sprintf("%s (requested %s)", m.Backend, m.Requested)
		}
		decode := "-"
		if m.DecodeElapsed > 0 {
			decode = m.DecodeElapsed.Round(time.Microsecond).String()
		}
		errText := "-"
		if m.Err != nil {
			errText = m.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%s\t%s\t%s\t%s\t%s\n",
			name,
			m.Codec,
			backend,
			m.Representation,
			float64(m.SizeBytes)/1024,
			m.ColdStart.Round(time.Microsecond),
			m.Elapsed.Round(time.Microsecond),
			m.PerTrial().Round(time.Nanosecond),
			decode,
			errText,
		)
	}
	return tw.Flush()
}

type tomlReport struct {
	RunID   string      `toml:"run_id"`
	Started time.Time   `toml:"started"`
	Trials  int         `toml:"trials"`
	Seed    uint64      `toml:"seed"`
	Version string      `toml:"record_version"`
	Entries []tomlEntry `toml:"entries"`
}

type tomlEntry struct {
	Name             string  `toml:"name"`
	Codec            string  `toml:"codec"`
	Representation   string  `toml:"representation"`
	RequestedBackend string  `toml:"requested_backend"`
	Backend          string  `toml:"backend"`
	Fallback         bool    `toml:"fallback"`
	SizeBytes        int     `toml:"size_bytes"`
	Trials           int     `toml:"trials"`
	ColdStartSeconds float64 `toml:"cold_start_seconds"`
	ElapsedSeconds   float64 `toml:"elapsed_seconds"`
	DecodeSeconds    float64 `toml:"decode_seconds,omitempty"`
	Error            string  `toml:"error,omitempty"`
}

// WriteTOML renders the report as TOML with one [[entries]] table per entry.
func (r Report) WriteTOML(w io.Writer) error {
	out := tomlReport{
		RunID:   r.RunID.String(),
		Started: r.Started.UTC(),
		Trials:  r.Trials,
		Seed:    r.Seed,
		Version: r.Version.String(),
		Entries: make([]tomlEntry, 0, len(r.Order)),
	}
	for _, name := range r.Order {
		m := r.Entries[name]
		e := tomlEntry{
			Name:             name,
			Codec:            m.Codec,
			Representation:   m.Representation.String(),
			RequestedBackend: m.Requested.String(),
			Backend:          m.Backend.String(),
			Fallback:         m.Fallback,
			SizeBytes:        m.SizeBytes,
			Trials:           m.Trials,
			ColdStartSeconds: m.ColdStart.Seconds(),
			ElapsedSeconds:   m.Elapsed.Seconds(),
			DecodeSeconds:    m.DecodeElapsed.Seconds(),
		}
		if m.Err != nil {
			e.Error = m.Err.Error()
		}
		out.Entries = append(out.Entries, e)
	}
	return toml.NewEncoder(w).Encode(out)
}
