// Package report formats benchmark results.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/weiihann/vadbench/harness"
)

// Generate writes the human-readable result line for r. When no frame was
// processed the real-time factor is undefined and reported as such.
func Generate(w io.Writer, r *harness.Result) error {
	if r == nil {
		return fmt.Errorf("no result to report")
	}

	if r.RealTimeFactor == nil {
		fmt.Fprintf(w,
			"%s real time factor is: undefined (no audio frames processed)\n",
			r.Engine,
		)
	} else {
		fmt.Fprintf(w, "%s real time factor is: %f\n", r.Engine, *r.RealTimeFactor)
	}

	if r.Latency != nil && r.Latency.Count > 0 {
		fmt.Fprintf(w, "frame latency: count=%d min=%s max=%s mean=%s\n",
			r.Latency.Count,
			formatUsec(r.Latency.Min),
			formatUsec(r.Latency.Max),
			formatUsec(r.Latency.Mean),
		)
	}

	return nil
}

// GenerateJSON writes r as JSON to w.
func GenerateJSON(w io.Writer, r *harness.Result) error {
	if r == nil {
		return fmt.Errorf("no result to report")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(r)
}

func formatUsec(d time.Duration) string {
	usec := float64(d) / float64(time.Microsecond)
	if usec < 1000 {
		return fmt.Sprintf("%.1fus", usec)
	}

	return fmt.Sprintf("%.2fms", usec/1000)
}
