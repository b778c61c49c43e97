// Package mock provides a scriptable engine.Binding for tests.
//
// The mock has a fixed sample rate and frame length, canned statuses, and a
// simulated per-frame processing duration that advances a fake clock, so
// real-time factors computed against it are exact.
package mock

import (
	"time"

	"github.com/weiihann/vadbench/engine"
)

// Advancer is the part of a fake clock the mock drives.
type Advancer interface {
	Advance(d time.Duration)
}

// Engine is a mock binding. Fields may be set before use; counters are
// updated as the harness calls in.
type Engine struct {
	Rate        int
	Frames      int
	VersionText string

	// InitStatus is returned by Init.
	InitStatus engine.Status
	// FailAt is the 1-based Process call that returns FailStatus.
	// Zero never fails.
	FailAt     int
	FailStatus engine.Status
	// Delay is the simulated duration of every Process call.
	Delay time.Duration
	Clock Advancer
	// Score is returned for every successful frame.
	Score float32

	InitCalls    int
	ProcessCalls int
	DeleteCalls  int
	CloseCalls   int
	// Lengths records the length of every frame passed to Process.
	Lengths []int
	// AccessKeys records every key passed to Init.
	AccessKeys []string
	// Events records lifecycle calls in order: "init", "delete", "close".
	Events []string
}

var _ engine.Binding = (*Engine)(nil)

// New returns a mock with sample rate rate and frame length frames.
func New(rate, frames int) *Engine {
	return &Engine{
		Rate:        rate,
		Frames:      frames,
		VersionText: "0.0.0-mock",
		FailStatus:  engine.StatusRuntimeError,
	}
}

func (e *Engine) Name() string { return "Mock" }

func (e *Engine) StatusToString(status engine.Status) string {
	return status.String()
}

func (e *Engine) SampleRate() int { return e.Rate }

func (e *Engine) FrameLength() int { return e.Frames }

func (e *Engine) Version() string { return e.VersionText }

func (e *Engine) Init(accessKey string) (engine.Instance, engine.Status) {
	e.InitCalls++
	e.AccessKeys = append(e.AccessKeys, accessKey)
	e.Events = append(e.Events, "init")

	if e.InitStatus != engine.StatusSuccess {
		return nil, e.InitStatus
	}

	return &instance{engine: e}, engine.StatusSuccess
}

func (e *Engine) Close() error {
	e.CloseCalls++
	e.Events = append(e.Events, "close")

	return nil
}

type instance struct {
	engine  *Engine
	deleted bool
}

func (i *instance) Process(pcm []int16) (float32, engine.Status) {
	e := i.engine
	e.ProcessCalls++
	e.Lengths = append(e.Lengths, len(pcm))

	if i.deleted {
		return 0, engine.StatusInvalidState
	}
	if len(pcm) != e.Frames {
		return 0, engine.StatusInvalidArgument
	}

	if e.Clock != nil && e.Delay > 0 {
		e.Clock.Advance(e.Delay)
	}

	if e.FailAt > 0 && e.ProcessCalls == e.FailAt {
		return 0, e.FailStatus
	}

	return e.Score, engine.StatusSuccess
}

func (i *instance) Delete() {
	if i.deleted {
		return
	}

	i.deleted = true
	i.engine.DeleteCalls++
	i.engine.Events = append(i.engine.Events, "delete")
}
