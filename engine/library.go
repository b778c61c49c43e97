package engine

import (
	"os"
	"path/filepath"
	"runtime"
)

// LibraryName returns the file name the Cobra library ships under on goos.
func LibraryName(goos string) string {
	switch goos {
	case "darwin":
		return "libpv_cobra.dylib"
	case "windows":
		return "libpv_cobra.dll"
	default:
		return "libpv_cobra.so"
	}
}

// ResolveLibrary returns the library file for path. A directory resolves to
// the platform's library file inside it; anything else, including a path
// that does not exist, is returned unchanged so the loader reports it.
func ResolveLibrary(path string) string {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path
	}

	return filepath.Join(path, LibraryName(runtime.GOOS))
}
