// Package engine defines the binding contract the harness uses to drive a
// voice activity detection engine, and the concrete bindings behind it.
//
// A Binding is the resolved set of engine entry points. It creates
// Instances, each an independent engine session that consumes fixed-size
// frames of 16-bit PCM. The harness never looks inside an engine: it only
// uses the entry points declared here.
package engine

import (
	"fmt"

	"github.com/weiihann/vadbench/errorsx"
)

// Supported engine names.
const (
	EngineCobra  = "cobra"
	EngineWebRTC = "webrtc"
	EngineSilero = "silero"
)

// Binding is the fixed set of entry points resolved for one engine.
// It is immutable once returned from Open.
type Binding interface {
	// Name is the display name used in reports.
	Name() string
	// StatusToString maps a status code to human-readable text.
	StatusToString(status Status) string
	// SampleRate is the engine's fixed input sample rate in Hz.
	SampleRate() int
	// FrameLength is the number of samples the engine consumes per call.
	FrameLength() int
	// Version returns the engine version string.
	Version() string
	// Init creates a new engine instance. On a non-success status the
	// returned Instance is nil.
	Init(accessKey string) (Instance, Status)
	// Close releases the binding. It must be the last release of a run.
	Close() error
}

// Instance is one engine session created by Binding.Init.
type Instance interface {
	// Process consumes exactly FrameLength samples and returns the voiced
	// score for the frame.
	Process(pcm []int16) (float32, Status)
	// Delete destroys the instance. Calls after the first are no-ops.
	Delete()
}

// Options selects and parameterizes an engine.
type Options struct {
	Engine      string
	LibraryPath string
	ModelPath   string
	WebRTCMode  int
	Threshold   float64
}

// Names returns the list of supported engine names.
func Names() []string {
	return []string{EngineCobra, EngineWebRTC, EngineSilero}
}

// Open resolves the binding for opts.Engine. An empty engine name selects
// the dynamically loaded Cobra library.
func Open(opts Options) (Binding, error) {
	switch opts.Engine {
	case "", EngineCobra:
		return openNative(opts.LibraryPath)
	case EngineWebRTC:
		return openWebRTC(opts.WebRTCMode)
	case EngineSilero:
		return openSilero(opts.ModelPath, opts.Threshold)
	default:
		return nil, errorsx.Wrap(
			fmt.Errorf("unknown engine %q", opts.Engine),
			errorsx.KindConfig,
		)
	}
}

func bindingError(format string, args ...any) error {
	return errorsx.Wrap(fmt.Errorf(format, args...), errorsx.KindBinding)
}
