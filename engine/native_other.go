//go:build !(darwin || linux || freebsd)

package engine

import "runtime"

func openNative(path string) (Binding, error) {
	return nil, bindingError(
		"failed to open library at '%s': dynamic loading is not supported on %s",
		path, runtime.GOOS,
	)
}
