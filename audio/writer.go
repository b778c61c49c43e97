package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM audio format tag.
const wavFormatPCM = 1

// WriteFile writes samples as a PCM WAV file at path. Samples are
// interleaved when f has more than one channel.
func WriteFile(path string, f Format, samples []int) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	enc := wav.NewEncoder(out, f.SampleRate, f.BitDepth, f.Channels, wavFormatPCM)

	buf := &goaudio.IntBuffer{
		Data: samples,
		Format: &goaudio.Format{
			NumChannels: f.Channels,
			SampleRate:  f.SampleRate,
		},
		SourceBitDepth: f.BitDepth,
	}

	if err := enc.Write(buf); err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if err := enc.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finalize %s: %w", path, err)
	}

	return out.Close()
}
