package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/weiihann/vadbench/audio"
	"github.com/weiihann/vadbench/engine"
	"github.com/weiihann/vadbench/errorsx"
	"github.com/weiihann/vadbench/observe"
)

// RunConfig holds parameters for a single benchmark run.
type RunConfig struct {
	WAVPath   string
	AccessKey string
}

// FrameReader fills a frame buffer and returns the number of samples read.
type FrameReader interface {
	ReadFrame(buf []int16) (int, error)
}

// Runner drives one engine binding through the benchmark.
type Runner struct {
	Binding engine.Binding
	Clock   clockwork.Clock
	Metrics *observe.Metrics
	// Banner receives the version line once the engine is initialized.
	// Nil suppresses it.
	Banner io.Writer
	Logger *slog.Logger
}

// NewRunner creates a Runner for binding. The binding stays owned by the
// caller, which must close it after Run returns.
func NewRunner(
	binding engine.Binding,
	clock clockwork.Clock,
	metrics *observe.Metrics,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		Binding: binding,
		Clock:   clock,
		Metrics: metrics,
		Logger:  logger.With(slog.String("engine", binding.Name())),
	}
}

// Run opens and validates the WAV file, creates an engine instance, and
// streams the file through it frame by frame. Every failure is returned
// without a partial result. Resources are released in reverse order of
// acquisition: audio stream, then engine instance.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	src, err := audio.Open(cfg.WAVPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	sampleRate := r.Binding.SampleRate()

	if err := src.Validate(sampleRate); err != nil {
		return nil, err
	}

	r.Logger.InfoContext(ctx, "audio validated",
		slog.String("wav_path", cfg.WAVPath),
		slog.Int("sample_rate", sampleRate),
	)

	frameLength := r.Binding.FrameLength()
	if frameLength <= 0 {
		return nil, errorsx.Wrap(fmt.Errorf(
			"failed to allocate memory for audio frame: invalid frame length %d",
			frameLength,
		), errorsx.KindResource)
	}

	pcm := make([]int16, frameLength)

	inst, status := r.Binding.Init(cfg.AccessKey)
	if status != engine.StatusSuccess {
		r.Metrics.RecordEngineError(ctx, r.Binding.Name(), "init")

		return nil, engineError(
			"failed to init with '%s'", r.Binding.StatusToString(status),
		)
	}
	defer func() {
		// Source.Close is idempotent; closing here keeps the audio
		// stream released before the instance.
		r.closeAudio(ctx, src)
		inst.Delete()
	}()

	version := r.Binding.Version()

	r.Logger.InfoContext(ctx, "engine initialized",
		slog.String("version", version),
		slog.Int("frame_length", frameLength),
	)

	if r.Banner != nil {
		fmt.Fprintf(r.Banner, "V%s\n\n", version)
	}

	acc, err := r.Stream(ctx, inst, src, pcm, sampleRate)
	if err != nil {
		return nil, err
	}

	r.Logger.InfoContext(ctx, "benchmark finished",
		slog.Int("frames", acc.Frames),
		slog.Duration("processing", acc.Processing),
	)

	result := &Result{
		Engine:         r.Binding.Name(),
		Version:        version,
		WAVPath:        cfg.WAVPath,
		SampleRate:     sampleRate,
		FrameLength:    frameLength,
		Frames:         acc.Frames,
		ProcessingUsec: acc.ProcessingUsec(),
		AudioUsec:      acc.AudioUsec,
	}

	if rtf, ok := acc.RealTimeFactor(); ok {
		result.RealTimeFactor = &rtf
	}

	return result, nil
}

// Stream reads frames of len(pcm) samples from frames and times one
// process call per full frame. The first short read ends the stream; its
// samples are never processed. A failure status aborts the stream.
func (r *Runner) Stream(
	ctx context.Context,
	inst engine.Instance,
	frames FrameReader,
	pcm []int16,
	sampleRate int,
) (Accumulator, error) {
	var acc Accumulator

	name := r.Binding.Name()

	for {
		if err := ctx.Err(); err != nil {
			return acc, fmt.Errorf("benchmark interrupted: %w", err)
		}

		n, err := frames.ReadFrame(pcm)
		if n < len(pcm) {
			r.Logger.DebugContext(ctx, "audio stream ended",
				slog.Int("tail_samples", n),
				slog.Any("read_error", err),
			)

			return acc, nil
		}

		start := r.Clock.Now()
		_, status := inst.Process(pcm)
		elapsed := r.Clock.Since(start)

		if status != engine.StatusSuccess {
			r.Metrics.RecordEngineError(ctx, name, "process")

			return acc, engineError(
				"failed to process with '%s'", r.Binding.StatusToString(status),
			)
		}

		acc.Add(elapsed, len(pcm), sampleRate)
		r.Metrics.RecordFrame(ctx, name, elapsed)
	}
}

// closeAudio releases the audio stream. A close failure cannot change the
// outcome of the run, so it is logged and not returned.
func (r *Runner) closeAudio(ctx context.Context, src io.Closer) {
	if err := src.Close(); err != nil {
		r.Logger.WarnContext(ctx, "close audio stream",
			slog.String("error", err.Error()),
		)
	}
}

func engineError(format string, args ...any) error {
	return errorsx.Wrap(fmt.Errorf(format, args...), errorsx.KindEngine)
}
