//go:build silero

package engine

import (
	"github.com/streamer45/silero-vad-go/speech"
)

// Silero binds the ONNX Silero VAD model. A frame scores 1 when it marks a
// speech onset, i.e. the detector opens a new speech segment in it; frames
// inside ongoing speech score 0.
type Silero struct {
	modelPath string
	threshold float32
}

func openSilero(modelPath string, threshold float64) (Binding, error) {
	if modelPath == "" {
		return nil, bindingError("silero engine requires a model path")
	}
	if threshold < 0 || threshold > 1 {
		return nil, bindingError("invalid silero threshold %g, must be 0-1", threshold)
	}

	return &Silero{modelPath: modelPath, threshold: float32(threshold)}, nil
}

func (s *Silero) Name() string { return "Silero" }

func (s *Silero) StatusToString(status Status) string { return status.String() }

func (s *Silero) SampleRate() int { return sileroSampleRate }

func (s *Silero) FrameLength() int { return sileroFrameLength }

func (s *Silero) Version() string { return "silero-vad-go" }

func (s *Silero) Init(_ string) (Instance, Status) {
	detector, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:            s.modelPath,
		SampleRate:           sileroSampleRate,
		Threshold:            s.threshold,
		MinSilenceDurationMs: 0,
		SpeechPadMs:          0,
		LogLevel:             speech.LogLevelWarn,
	})
	if err != nil {
		return nil, StatusIOError
	}

	return &sileroInstance{
		detector: detector,
		samples:  make([]float32, sileroFrameLength),
	}, StatusSuccess
}

func (s *Silero) Close() error { return nil }

type sileroInstance struct {
	detector *speech.Detector
	samples  []float32
}

func (i *sileroInstance) Process(pcm []int16) (float32, Status) {
	if i.detector == nil {
		return 0, StatusInvalidState
	}
	if len(pcm) != sileroFrameLength {
		return 0, StatusInvalidArgument
	}

	for n, sample := range pcm {
		i.samples[n] = float32(sample) / 32768
	}

	segments, err := i.detector.Detect(i.samples)
	if err != nil {
		return 0, StatusRuntimeError
	}
	if len(segments) > 0 {
		return 1, StatusSuccess
	}

	return 0, StatusSuccess
}

func (i *sileroInstance) Delete() {
	if i.detector == nil {
		return
	}

	_ = i.detector.Destroy()
	i.detector = nil
}
