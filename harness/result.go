// Package harness runs the frame-streaming real-time-factor benchmark of a
// VAD engine over a WAV file.
package harness

import (
	"time"

	"github.com/weiihann/vadbench/observe"
)

// Result holds the structured outcome of a benchmark run.
type Result struct {
	Engine         string           `json:"engine"`
	Version        string           `json:"version"`
	WAVPath        string           `json:"wav_path"`
	SampleRate     int              `json:"sample_rate"`
	FrameLength    int              `json:"frame_length"`
	Frames         int              `json:"frames"`
	ProcessingUsec float64          `json:"processing_usec"`
	AudioUsec      float64          `json:"audio_usec"`
	RealTimeFactor *float64         `json:"real_time_factor,omitempty"`
	Latency        *observe.Latency `json:"frame_latency,omitempty"`
}

// Accumulator holds the running totals of the benchmark loop.
type Accumulator struct {
	Frames int
	// Processing is the summed duration of the engine's process calls.
	Processing time.Duration
	// AudioUsec is the nominal audio duration of the processed frames in
	// microseconds, derived from frame length and sample rate only.
	AudioUsec float64
}

// Add accounts one processed frame.
func (a *Accumulator) Add(elapsed time.Duration, frameLength, sampleRate int) {
	a.Frames++
	a.Processing += elapsed
	a.AudioUsec += float64(frameLength) * 1e6 / float64(sampleRate)
}

// ProcessingUsec returns the processing total in microseconds.
func (a Accumulator) ProcessingUsec() float64 {
	return float64(a.Processing) / float64(time.Microsecond)
}

// RealTimeFactor returns processing time over audio duration. ok is false
// when no audio was processed and the ratio is undefined.
func (a Accumulator) RealTimeFactor() (rtf float64, ok bool) {
	if a.AudioUsec == 0 {
		return 0, false
	}

	return a.ProcessingUsec() / a.AudioUsec, true
}
