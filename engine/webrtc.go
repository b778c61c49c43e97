//go:build cgo

package engine

import (
	"encoding/binary"

	"github.com/hackers365/go-webrtcvad"
)

// WebRTC binds the in-process WebRTC VAD. It reports a voiced score of 1
// for speech frames and 0 otherwise.
type WebRTC struct {
	mode int
}

func openWebRTC(mode int) (Binding, error) {
	if mode < 0 || mode > 3 {
		return nil, bindingError("invalid webrtc mode %d, must be 0-3", mode)
	}

	return &WebRTC{mode: mode}, nil
}

func (w *WebRTC) Name() string { return "WebRTC" }

func (w *WebRTC) StatusToString(status Status) string { return status.String() }

func (w *WebRTC) SampleRate() int { return webrtcSampleRate }

func (w *WebRTC) FrameLength() int { return webrtcFrameLength }

func (w *WebRTC) Version() string { return "webrtcvad" }

func (w *WebRTC) Init(_ string) (Instance, Status) {
	vad, err := webrtcvad.New()
	if err != nil || vad == nil {
		return nil, StatusOutOfMemory
	}

	if err := vad.SetMode(w.mode); err != nil {
		webrtcvad.Free(vad)
		return nil, StatusInvalidArgument
	}

	return &webrtcInstance{
		vad:   vad,
		frame: make([]byte, webrtcFrameLength*2),
	}, StatusSuccess
}

func (w *WebRTC) Close() error { return nil }

type webrtcInstance struct {
	vad   *webrtcvad.VAD
	frame []byte
}

func (i *webrtcInstance) Process(pcm []int16) (float32, Status) {
	if i.vad == nil {
		return 0, StatusInvalidState
	}
	if len(pcm) != webrtcFrameLength {
		return 0, StatusInvalidArgument
	}

	for n, sample := range pcm {
		binary.LittleEndian.PutUint16(i.frame[n*2:], uint16(sample))
	}

	active, err := i.vad.Process(webrtcSampleRate, i.frame)
	if err != nil {
		return 0, StatusRuntimeError
	}
	if active {
		return 1, StatusSuccess
	}

	return 0, StatusSuccess
}

func (i *webrtcInstance) Delete() {
	if i.vad == nil {
		return
	}

	webrtcvad.Free(i.vad)
	i.vad = nil
}
