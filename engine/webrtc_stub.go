//go:build !cgo

package engine

func openWebRTC(int) (Binding, error) {
	return nil, bindingError("webrtc engine unavailable (cgo disabled)")
}
