package engine

// Fixed input formats of the in-process engines.
const (
	// 30 ms frames at 16 kHz.
	webrtcSampleRate  = 16000
	webrtcFrameLength = 480

	sileroSampleRate  = 16000
	sileroFrameLength = 512
)
