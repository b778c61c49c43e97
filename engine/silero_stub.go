//go:build !silero

package engine

func openSilero(string, float64) (Binding, error) {
	return nil, bindingError("silero engine unavailable (built without the silero tag)")
}
