package harness

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiihann/vadbench/audio"
	"github.com/weiihann/vadbench/engine"
	"github.com/weiihann/vadbench/engine/mock"
	"github.com/weiihann/vadbench/errorsx"
	"github.com/weiihann/vadbench/observe"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRunner(t *testing.T, eng *mock.Engine) (*Runner, *clockwork.FakeClock) {
	t.Helper()

	mp, _ := observe.NewProvider()
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := observe.NewMetrics(mp)
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	eng.Clock = clock

	return NewRunner(eng, clock, metrics, discardLogger()), clock
}

func writeWAV(t *testing.T, f audio.Format, n int) string {
	t.Helper()

	samples := make([]int, n*f.Channels)
	for i := range samples {
		samples[i] = (i * 37) % 4096
	}

	path := filepath.Join(t.TempDir(), "input.wav")
	require.NoError(t, audio.WriteFile(path, f, samples))

	return path
}

func monoWAV(t *testing.T, rate, n int) string {
	t.Helper()
	return writeWAV(t, audio.Format{SampleRate: rate, BitDepth: 16, Channels: 1}, n)
}

func TestRunThreeExactFrames(t *testing.T) {
	eng := mock.New(16000, 512)
	eng.Delay = 16 * time.Millisecond
	runner, _ := newTestRunner(t, eng)

	result, err := runner.Run(context.Background(), RunConfig{
		WAVPath:   monoWAV(t, 16000, 1536),
		AccessKey: "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, eng.ProcessCalls)
	assert.Equal(t, []int{512, 512, 512}, eng.Lengths)
	assert.Equal(t, 3, result.Frames)
	assert.Equal(t, 96000.0, result.AudioUsec)
	assert.Equal(t, 48000.0, result.ProcessingUsec)
	require.NotNil(t, result.RealTimeFactor)
	assert.Equal(t, 0.5, *result.RealTimeFactor)

	assert.Equal(t, "Mock", result.Engine)
	assert.Equal(t, "0.0.0-mock", result.Version)
	assert.Equal(t, 16000, result.SampleRate)
	assert.Equal(t, 512, result.FrameLength)

	assert.Equal(t, []string{"secret"}, eng.AccessKeys)
	assert.Equal(t, 1, eng.DeleteCalls)
	assert.Equal(t, []string{"init", "delete"}, eng.Events)
}

func TestRunShorterThanOneFrame(t *testing.T) {
	eng := mock.New(16000, 512)
	runner, _ := newTestRunner(t, eng)

	result, err := runner.Run(context.Background(), RunConfig{
		WAVPath: monoWAV(t, 16000, 100),
	})
	require.NoError(t, err)

	assert.Zero(t, eng.ProcessCalls)
	assert.Zero(t, result.Frames)
	assert.Zero(t, result.AudioUsec)
	assert.Nil(t, result.RealTimeFactor)
	assert.Equal(t, 1, eng.DeleteCalls)
}

func TestRunDiscardsPartialTail(t *testing.T) {
	eng := mock.New(16000, 512)
	runner, _ := newTestRunner(t, eng)

	result, err := runner.Run(context.Background(), RunConfig{
		WAVPath: monoWAV(t, 16000, 3*512+100),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Frames)
	for _, n := range eng.Lengths {
		assert.Equal(t, 512, n)
	}
	assert.Equal(t, 96000.0, result.AudioUsec)
}

func TestRunRealTimeFactorMatchesSimulatedDelay(t *testing.T) {
	tests := []struct {
		name   string
		rate   int
		frames int
		delay  time.Duration
		count  int
	}{
		{"16k/512", 16000, 512, 3200 * time.Microsecond, 10},
		{"16k/480", 16000, 480, 750 * time.Microsecond, 7},
		{"8k/256", 8000, 256, 40 * time.Millisecond, 4},
		{"48k/960", 48000, 960, 20 * time.Millisecond, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := mock.New(tt.rate, tt.frames)
			eng.Delay = tt.delay
			runner, _ := newTestRunner(t, eng)

			result, err := runner.Run(context.Background(), RunConfig{
				WAVPath: monoWAV(t, tt.rate, tt.frames*tt.count),
			})
			require.NoError(t, err)
			require.NotNil(t, result.RealTimeFactor)

			frameUsec := float64(tt.frames) * 1e6 / float64(tt.rate)
			want := float64(tt.delay.Microseconds()) / frameUsec

			assert.Equal(t, tt.count, result.Frames)
			assert.InDelta(t, want, *result.RealTimeFactor, 1e-12)
			assert.InDelta(t, float64(tt.count)*frameUsec, result.AudioUsec, 1e-6)
		})
	}
}

func TestRunRejectsFormatBeforeInit(t *testing.T) {
	tests := []struct {
		name    string
		format  audio.Format
		wantErr error
	}{
		{"sample rate", audio.Format{SampleRate: 8000, BitDepth: 16, Channels: 1}, audio.ErrSampleRate},
		{"bit depth", audio.Format{SampleRate: 16000, BitDepth: 24, Channels: 1}, audio.ErrBitDepth},
		{"channels", audio.Format{SampleRate: 16000, BitDepth: 16, Channels: 2}, audio.ErrChannels},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := mock.New(16000, 512)
			runner, _ := newTestRunner(t, eng)

			_, err := runner.Run(context.Background(), RunConfig{
				WAVPath: writeWAV(t, tt.format, 1024),
			})
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, errorsx.Is(err, errorsx.KindFormat))
			assert.Zero(t, eng.InitCalls)
			assert.Zero(t, eng.DeleteCalls)
		})
	}
}

func TestRunMissingWAV(t *testing.T) {
	eng := mock.New(16000, 512)
	runner, _ := newTestRunner(t, eng)

	_, err := runner.Run(context.Background(), RunConfig{
		WAVPath: filepath.Join(t.TempDir(), "missing.wav"),
	})
	require.Error(t, err)
	assert.True(t, errorsx.Is(err, errorsx.KindFormat))
	assert.Zero(t, eng.InitCalls)
}

func TestRunInvalidFrameLength(t *testing.T) {
	eng := mock.New(16000, 0)
	runner, _ := newTestRunner(t, eng)

	_, err := runner.Run(context.Background(), RunConfig{
		WAVPath: monoWAV(t, 16000, 1024),
	})
	require.Error(t, err)
	assert.True(t, errorsx.Is(err, errorsx.KindResource))
	assert.Zero(t, eng.InitCalls)
}

func TestRunInitFailure(t *testing.T) {
	eng := mock.New(16000, 512)
	eng.InitStatus = engine.StatusActivationRefused
	runner, _ := newTestRunner(t, eng)

	var banner bytes.Buffer
	runner.Banner = &banner

	_, err := runner.Run(context.Background(), RunConfig{
		WAVPath: monoWAV(t, 16000, 1536),
	})
	require.Error(t, err)
	assert.True(t, errorsx.Is(err, errorsx.KindEngine))
	assert.Equal(t, "failed to init with 'ACTIVATION_REFUSED'", err.Error())

	assert.Equal(t, 1, eng.InitCalls)
	assert.Zero(t, eng.ProcessCalls)
	assert.Zero(t, eng.DeleteCalls)
	assert.Empty(t, banner.String())
}

func TestRunProcessFailureDeletesInstance(t *testing.T) {
	eng := mock.New(16000, 512)
	eng.FailAt = 2
	eng.FailStatus = engine.StatusInvalidState
	runner, _ := newTestRunner(t, eng)

	result, err := runner.Run(context.Background(), RunConfig{
		WAVPath: monoWAV(t, 16000, 5*512),
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errorsx.Is(err, errorsx.KindEngine))
	assert.Equal(t, "failed to process with 'INVALID_STATE'", err.Error())

	assert.Equal(t, 2, eng.ProcessCalls)
	assert.Equal(t, 1, eng.DeleteCalls)
}

func TestRunWritesBanner(t *testing.T) {
	eng := mock.New(16000, 512)
	eng.VersionText = "2.0.0"
	runner, _ := newTestRunner(t, eng)

	var banner bytes.Buffer
	runner.Banner = &banner

	_, err := runner.Run(context.Background(), RunConfig{
		WAVPath: monoWAV(t, 16000, 512),
	})
	require.NoError(t, err)
	assert.Equal(t, "V2.0.0\n\n", banner.String())
}

func TestRunCanceled(t *testing.T) {
	eng := mock.New(16000, 512)
	runner, _ := newTestRunner(t, eng)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx, RunConfig{WAVPath: monoWAV(t, 16000, 1536)})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, eng.ProcessCalls)
	assert.Equal(t, 1, eng.DeleteCalls)
}

func TestRunRecordsMetrics(t *testing.T) {
	mp, reader := observe.NewProvider()
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := observe.NewMetrics(mp)
	require.NoError(t, err)

	eng := mock.New(16000, 512)
	eng.Delay = 250 * time.Microsecond
	clock := clockwork.NewFakeClock()
	eng.Clock = clock

	runner := NewRunner(eng, clock, metrics, discardLogger())

	_, err = runner.Run(context.Background(), RunConfig{
		WAVPath: monoWAV(t, 16000, 4*512),
	})
	require.NoError(t, err)

	lat, err := observe.CollectLatency(context.Background(), reader)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), lat.Count)
	assert.Equal(t, 250*time.Microsecond, lat.Min)
	assert.Equal(t, 250*time.Microsecond, lat.Max)
	assert.Equal(t, 250*time.Microsecond, lat.Mean)
}

type scriptedReader struct {
	counts []int
	err    error
	reads  int
}

func (r *scriptedReader) ReadFrame(buf []int16) (int, error) {
	if r.reads >= len(r.counts) {
		return 0, io.EOF
	}

	n := r.counts[r.reads]
	r.reads++

	if n < len(buf) {
		return n, r.err
	}

	return n, nil
}

func TestStreamStopsOnFirstShortRead(t *testing.T) {
	eng := mock.New(16000, 4)
	runner, _ := newTestRunner(t, eng)

	inst, status := eng.Init("")
	require.Equal(t, engine.StatusSuccess, status)

	frames := &scriptedReader{
		counts: []int{4, 4, 2, 4},
		err:    errors.New("truncated chunk"),
	}

	acc, err := runner.Stream(context.Background(), inst, frames, make([]int16, 4), 16000)
	require.NoError(t, err)

	assert.Equal(t, 2, acc.Frames)
	assert.Equal(t, 2, eng.ProcessCalls)
	assert.Equal(t, 3, frames.reads)
}

func TestAccumulator(t *testing.T) {
	var acc Accumulator

	_, ok := acc.RealTimeFactor()
	assert.False(t, ok)

	acc.Add(8*time.Millisecond, 512, 16000)
	acc.Add(8*time.Millisecond, 512, 16000)

	assert.Equal(t, 2, acc.Frames)
	assert.Equal(t, 64000.0, acc.AudioUsec)
	assert.Equal(t, 16000.0, acc.ProcessingUsec())

	rtf, ok := acc.RealTimeFactor()
	require.True(t, ok)
	assert.Equal(t, 0.25, rtf)
}

type failingCloser struct{ calls int }

func (c *failingCloser) Close() error {
	c.calls++
	return errors.New("disk went away")
}

func TestCloseAudioLogsFailure(t *testing.T) {
	var logs bytes.Buffer

	runner := NewRunner(
		mock.New(16000, 512),
		clockwork.NewFakeClock(),
		nil,
		slog.New(slog.NewTextHandler(&logs, nil)),
	)

	closer := &failingCloser{}
	runner.closeAudio(context.Background(), closer)

	assert.Equal(t, 1, closer.calls)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), `msg="close audio stream"`)
	assert.Contains(t, logs.String(), `error="disk went away"`)
}

func TestCloseAudioQuietOnSuccess(t *testing.T) {
	var logs bytes.Buffer

	runner := NewRunner(
		mock.New(16000, 512),
		clockwork.NewFakeClock(),
		nil,
		slog.New(slog.NewTextHandler(&logs, nil)),
	)

	src, err := audio.Open(monoWAV(t, 16000, 512))
	require.NoError(t, err)

	runner.closeAudio(context.Background(), src)
	assert.Empty(t, logs.String())
}
