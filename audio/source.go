// Package audio reads and writes the 16-bit PCM WAV files the harness
// benchmarks against.
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/weiihann/vadbench/errorsx"
)

// Format mismatches reported by Validate.
var (
	ErrSampleRate = errors.New("sample rate mismatch")
	ErrBitDepth   = errors.New("bit depth mismatch")
	ErrChannels   = errors.New("channel count mismatch")
)

// RequiredBitDepth is the only sample width engines accept.
const RequiredBitDepth = 16

// Format describes a WAV stream.
type Format struct {
	SampleRate int
	BitDepth   int
	Channels   int
}

// Source is a WAV file positioned at its PCM data.
type Source struct {
	path   string
	file   *os.File
	dec    *wav.Decoder
	format Format
	buf    *goaudio.IntBuffer
}

// Open opens the WAV file at path and forwards to its PCM chunk.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, formatError("failed to open wav file at '%s': %w", path, err)
	}

	dec := wav.NewDecoder(f)

	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		f.Close()
		return nil, formatError("failed to open wav file at '%s': %w", path, err)
	}

	if err := dec.FwdToPCM(); err != nil {
		f.Close()
		return nil, formatError("failed to open wav file at '%s': %w", path, err)
	}

	return &Source{
		path: path,
		file: f,
		dec:  dec,
		format: Format{
			SampleRate: int(dec.SampleRate),
			BitDepth:   int(dec.BitDepth),
			Channels:   int(dec.NumChans),
		},
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: int(dec.NumChans),
				SampleRate:  int(dec.SampleRate),
			},
		},
	}, nil
}

// Path returns the file path the source was opened from.
func (s *Source) Path() string { return s.path }

// Format returns the stream format read from the header.
func (s *Source) Format() Format { return s.format }

// Validate checks the stream against an engine's input requirements:
// sample rate, then bit depth, then channel count.
func (s *Source) Validate(sampleRate int) error {
	return s.format.Validate(sampleRate)
}

// Validate checks f against an engine's input requirements.
func (f Format) Validate(sampleRate int) error {
	if f.SampleRate != sampleRate {
		return formatError(
			"audio sample rate should be %d, got %d: %w",
			sampleRate, f.SampleRate, ErrSampleRate,
		)
	}

	if f.BitDepth != RequiredBitDepth {
		return formatError(
			"audio format should be 16-bit, got %d-bit: %w",
			f.BitDepth, ErrBitDepth,
		)
	}

	if f.Channels != 1 {
		return formatError(
			"audio should be single-channel, got %d channels: %w",
			f.Channels, ErrChannels,
		)
	}

	return nil
}

// ReadFrame fills buf with the next samples and returns how many were
// read. A count below len(buf) means the stream ended, whether cleanly or
// on a truncated tail; err is io.EOF in the clean case.
func (s *Source) ReadFrame(buf []int16) (int, error) {
	if s.file == nil {
		return 0, os.ErrClosed
	}

	if cap(s.buf.Data) < len(buf) {
		s.buf.Data = make([]int, len(buf))
	}

	total := 0
	for total < len(buf) {
		s.buf.Data = s.buf.Data[:len(buf)-total]

		n, err := s.dec.PCMBuffer(s.buf)
		for i := 0; i < n; i++ {
			buf[total+i] = int16(s.buf.Data[i])
		}
		total += n

		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.EOF
		}
	}

	return total, nil
}

// Close closes the underlying file. Further calls are no-ops.
func (s *Source) Close() error {
	if s.file == nil {
		return nil
	}

	f := s.file
	s.file = nil

	return f.Close()
}

func formatError(format string, args ...any) error {
	return errorsx.Wrap(fmt.Errorf(format, args...), errorsx.KindFormat)
}
