// Package workload generates deterministic synthetic speech/silence audio
// for benchmarking VAD engines without recorded datasets. Audio is built
// from alternating segments: harmonic, syllable-modulated bursts standing in
// for speech, and low-level noise standing in for silence.
package workload

import (
	"fmt"
	"math"
	mrand "math/rand"
	"time"

	"github.com/weiihann/vadbench/audio"
)

// Segment is one contiguous run of generated audio.
type Segment struct {
	Speech bool
	Start  int
	Length int
}

// Summary contains statistics about the generated audio.
type Summary struct {
	Samples        int
	Segments       int
	SpeechSegments int
	SpeechSamples  int
}

// Config controls generation parameters. Segment lengths are counted in
// frames of FrameLength samples, so the output is frame-aligned.
type Config struct {
	SampleRate   int
	FrameLength  int
	Duration     time.Duration
	SpeechRatio  float64
	MinSegment   int
	MaxSegment   int
	Distribution string
	Seed         int64
}

// DefaultConfig returns 10 s of 16 kHz audio in 512-sample frames with
// roughly half speech.
func DefaultConfig() Config {
	return Config{
		SampleRate:   16000,
		FrameLength:  512,
		Duration:     10 * time.Second,
		SpeechRatio:  0.5,
		MinSegment:   8,
		MaxSegment:   64,
		Distribution: "uniform",
		Seed:         1,
	}
}

// Validate reports configuration values the generator cannot use.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.FrameLength <= 0 {
		return fmt.Errorf("frame length must be positive, got %d", c.FrameLength)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %s", c.Duration)
	}
	if c.SpeechRatio < 0 || c.SpeechRatio > 1 {
		return fmt.Errorf("speech ratio must be within [0, 1], got %g", c.SpeechRatio)
	}
	if c.MinSegment <= 0 || c.MaxSegment < c.MinSegment {
		return fmt.Errorf(
			"segment bounds must satisfy 0 < min <= max, got %d..%d",
			c.MinSegment, c.MaxSegment,
		)
	}

	return nil
}

// Generator produces deterministic audio from a Config.
type Generator struct {
	cfg Config
	rng *mrand.Rand
}

// NewGenerator creates a Generator from the given Config.
func NewGenerator(cfg Config) *Generator {
	return &Generator{
		cfg: cfg,
		rng: mrand.New(mrand.NewSource(cfg.Seed)),
	}
}

// Generate returns the mono samples, their segment layout, and a Summary.
func (g *Generator) Generate() ([]int, []Segment, Summary, error) {
	var summary Summary

	if err := g.cfg.Validate(); err != nil {
		return nil, nil, summary, err
	}

	totalFrames := int(g.cfg.Duration.Seconds()*float64(g.cfg.SampleRate)) /
		g.cfg.FrameLength
	samples := make([]int, totalFrames*g.cfg.FrameLength)

	var segments []Segment

	for frame := 0; frame < totalFrames; {
		speech := g.rng.Float64() < g.cfg.SpeechRatio
		length := min(g.segmentFrames(), totalFrames-frame)

		seg := Segment{
			Speech: speech,
			Start:  frame * g.cfg.FrameLength,
			Length: length * g.cfg.FrameLength,
		}

		out := samples[seg.Start : seg.Start+seg.Length]
		if speech {
			g.speech(out)
			summary.SpeechSegments++
			summary.SpeechSamples += seg.Length
		} else {
			g.silence(out)
		}

		segments = append(segments, seg)
		frame += length
	}

	summary.Samples = len(samples)
	summary.Segments = len(segments)

	return samples, segments, summary, nil
}

// WriteFile generates audio and writes it to path as mono 16-bit PCM WAV.
func (g *Generator) WriteFile(path string) (Summary, error) {
	samples, _, summary, err := g.Generate()
	if err != nil {
		return summary, err
	}

	format := audio.Format{
		SampleRate: g.cfg.SampleRate,
		BitDepth:   audio.RequiredBitDepth,
		Channels:   1,
	}

	if err := audio.WriteFile(path, format, samples); err != nil {
		return summary, fmt.Errorf("write workload: %w", err)
	}

	return summary, nil
}

// speech fills out with a voiced burst: a harmonic series over a random
// pitch, amplitude-modulated at a syllable rate, plus breath noise.
func (g *Generator) speech(out []int) {
	rate := float64(g.cfg.SampleRate)
	pitch := 100 + g.rng.Float64()*150
	syllable := 3 + g.rng.Float64()*3
	gain := 6000 + g.rng.Float64()*6000

	for i := range out {
		t := float64(i) / rate

		var v float64
		for h := 1; h <= 5; h++ {
			v += math.Sin(2*math.Pi*pitch*float64(h)*t) / float64(h)
		}

		env := math.Pow(math.Sin(math.Pi*syllable*t), 2)
		out[i] = clamp(gain*env*v + g.rng.NormFloat64()*200)
	}
}

// silence fills out with low-level background noise.
func (g *Generator) silence(out []int) {
	for i := range out {
		out[i] = clamp(g.rng.NormFloat64() * 30)
	}
}

func (g *Generator) segmentFrames() int {
	lo, hi := g.cfg.MinSegment, g.cfg.MaxSegment

	switch g.cfg.Distribution {
	case "power-law":
		alpha := 1.5
		u := g.rng.Float64()
		frames := float64(lo) / math.Pow(1-u, 1/alpha)

		return max(lo, int(math.Min(frames, float64(hi))))

	case "exponential":
		lambda := math.Log(2) / math.Max(float64(hi)/4, 1)
		u := g.rng.Float64()
		frames := -math.Log(1-u) / lambda

		return int(math.Max(float64(lo), math.Min(frames, float64(hi))))

	default:
		return lo + g.rng.Intn(hi-lo+1)
	}
}

func clamp(v float64) int {
	return int(math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(v))))
}
