//go:build darwin || linux || freebsd

package engine

import (
	"github.com/ebitengine/purego"
)

// Native is a binding to the Cobra engine library loaded at run time.
type Native struct {
	path   string
	handle uintptr

	statusToString func(status int32) string
	sampleRate     func() int32
	initFn         func(accessKey string, object *uintptr) int32
	deleteFn       func(object uintptr)
	processFn      func(object uintptr, pcm *int16, isVoiced *float32) int32
	frameLength    func() int32
	version        func() string
}

type symbol struct {
	name string
	fn   any
}

// OpenNative maps the library at path with immediate symbol binding and
// resolves every entry point. Resolution stops at the first missing
// symbol; the library is unmapped again before the error is returned.
func OpenNative(path string) (*Native, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW)
	if err != nil {
		return nil, bindingError(
			"failed to open library at '%s': %v", path, err,
		)
	}

	n := &Native{path: path, handle: handle}

	for _, s := range n.symbols() {
		addr, err := purego.Dlsym(handle, s.name)
		if err != nil {
			_ = purego.Dlclose(handle)

			return nil, bindingError(
				"failed to load '%s' with '%v'", s.name, err,
			)
		}

		purego.RegisterFunc(s.fn, addr)
	}

	return n, nil
}

func openNative(path string) (Binding, error) {
	n, err := OpenNative(ResolveLibrary(path))
	if err != nil {
		return nil, err
	}

	return n, nil
}

// symbols lists the entry points in resolution order.
func (n *Native) symbols() []symbol {
	return []symbol{
		{"pv_status_to_string", &n.statusToString},
		{"pv_sample_rate", &n.sampleRate},
		{"pv_cobra_init", &n.initFn},
		{"pv_cobra_delete", &n.deleteFn},
		{"pv_cobra_process", &n.processFn},
		{"pv_cobra_frame_length", &n.frameLength},
		{"pv_cobra_version", &n.version},
	}
}

func (n *Native) Name() string { return "Cobra" }

// Path returns the library path the binding was opened from.
func (n *Native) Path() string { return n.path }

func (n *Native) StatusToString(status Status) string {
	return n.statusToString(int32(status))
}

func (n *Native) SampleRate() int { return int(n.sampleRate()) }

func (n *Native) FrameLength() int { return int(n.frameLength()) }

func (n *Native) Version() string { return n.version() }

func (n *Native) Init(accessKey string) (Instance, Status) {
	var object uintptr

	status := Status(n.initFn(accessKey, &object))
	if status != StatusSuccess {
		return nil, status
	}

	return &nativeInstance{
		binding:     n,
		object:      object,
		frameLength: n.FrameLength(),
	}, StatusSuccess
}

// Close unmaps the library. Further calls are no-ops.
func (n *Native) Close() error {
	if n.handle == 0 {
		return nil
	}

	handle := n.handle
	n.handle = 0

	if err := purego.Dlclose(handle); err != nil {
		return bindingError("failed to close library at '%s': %v", n.path, err)
	}

	return nil
}

type nativeInstance struct {
	binding     *Native
	object      uintptr
	frameLength int
}

func (i *nativeInstance) Process(pcm []int16) (float32, Status) {
	if i.object == 0 {
		return 0, StatusInvalidState
	}
	if len(pcm) != i.frameLength {
		return 0, StatusInvalidArgument
	}

	var isVoiced float32

	status := Status(i.binding.processFn(i.object, &pcm[0], &isVoiced))

	return isVoiced, status
}

func (i *nativeInstance) Delete() {
	if i.object == 0 {
		return
	}

	i.binding.deleteFn(i.object)
	i.object = 0
}
