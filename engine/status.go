package engine

import "fmt"

// Status is an engine status code. Values follow the engine library's
// pv_status_t numbering so codes returned across the native boundary
// convert directly.
type Status int32

const (
	StatusSuccess Status = iota
	StatusOutOfMemory
	StatusIOError
	StatusInvalidArgument
	StatusStopIteration
	StatusKeyError
	StatusInvalidState
	StatusRuntimeError
	StatusActivationError
	StatusActivationLimitReached
	StatusActivationThrottled
	StatusActivationRefused
)

var statusNames = [...]string{
	StatusSuccess:                "SUCCESS",
	StatusOutOfMemory:            "OUT_OF_MEMORY",
	StatusIOError:                "IO_ERROR",
	StatusInvalidArgument:        "INVALID_ARGUMENT",
	StatusStopIteration:          "STOP_ITERATION",
	StatusKeyError:               "KEY_ERROR",
	StatusInvalidState:           "INVALID_STATE",
	StatusRuntimeError:           "RUNTIME_ERROR",
	StatusActivationError:        "ACTIVATION_ERROR",
	StatusActivationLimitReached: "ACTIVATION_LIMIT_REACHED",
	StatusActivationThrottled:    "ACTIVATION_THROTTLED",
	StatusActivationRefused:      "ACTIVATION_REFUSED",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("STATUS(%d)", int32(s))
}
