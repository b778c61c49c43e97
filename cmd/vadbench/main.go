// Package main provides the CLI entry point for vadbench, which measures
// the real-time factor of a voice activity detection engine over a WAV
// file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/weiihann/vadbench/config"
	"github.com/weiihann/vadbench/engine"
	"github.com/weiihann/vadbench/errorsx"
	"github.com/weiihann/vadbench/harness"
	"github.com/weiihann/vadbench/observe"
	"github.com/weiihann/vadbench/report"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const usageLine = "Usage: %s [-l LIBRARY_PATH -a ACCESS_KEY -w WAV_PATH]\n"

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)

	root := newRootCmd(&app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		open:   engine.Open,
		clock:  clockwork.NewRealClock(),
	})

	err := root.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errorsx.ExitCode(err))
	}
}

// app carries the process-level dependencies so tests can swap them.
type app struct {
	stdout io.Writer
	stderr io.Writer
	open   func(engine.Options) (engine.Binding, error)
	clock  clockwork.Clock
}

func (a *app) logger(level slog.Level, component string) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{
		Level: level,
	}))

	return logger.With(slog.String("component", component))
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "vadbench",
		Short: "Voice activity detection engine benchmark",
		Long: `Vadbench streams a mono 16-bit PCM WAV file through a voice activity
detection engine one frame at a time and reports the real-time factor: the
time spent processing divided by the duration of the audio processed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBenchmark(cmd)
		},
	}

	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errorsx.Wrap(err, errorsx.KindConfig)
	})

	config.Register(root.Flags())

	root.AddCommand(newGenWAVCmd(a))

	return root
}

func (a *app) runBenchmark(cmd *cobra.Command) error {
	ctx := cmd.Context()

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissing) {
			fmt.Fprintf(a.stdout, usageLine, cmd.Root().Name())
		}

		return err
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}

	logger := a.logger(level, "bench")

	binding, err := a.open(cfg.EngineOptions())
	if err != nil {
		return err
	}
	defer func() {
		if err := binding.Close(); err != nil {
			logger.WarnContext(ctx, "close engine library",
				slog.String("error", err.Error()),
			)
		}
	}()

	logger.InfoContext(ctx, "engine library opened",
		slog.String("engine", cfg.EngineName()),
		slog.String("library_path", cfg.LibraryPath),
		slog.String("version", binding.Version()),
	)

	metrics, reader, shutdown, err := newMetrics(cfg.Metrics)
	if err != nil {
		return err
	}
	defer shutdown()

	runner := harness.NewRunner(binding, a.clock, metrics, logger)
	if !cfg.JSON {
		runner.Banner = a.stdout
	}

	result, err := runner.Run(ctx, harness.RunConfig{
		WAVPath:   cfg.WAVPath,
		AccessKey: cfg.AccessKey,
	})
	if err != nil {
		return err
	}

	if reader != nil {
		lat, err := observe.CollectLatency(ctx, reader)
		if err != nil {
			return err
		}

		result.Latency = &lat
	}

	if cfg.JSON {
		if err := report.GenerateJSON(a.stdout, result); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	} else {
		if err := report.Generate(a.stdout, result); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	return nil
}

// newMetrics returns the instruments for a run. With collection enabled
// they feed a manual reader the latency summary is read from; otherwise
// they record into the global, no-op provider.
func newMetrics(
	collect bool,
) (*observe.Metrics, *sdkmetric.ManualReader, func(), error) {
	if !collect {
		m, err := observe.GlobalMetrics()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create metrics: %w", err)
		}

		return m, nil, func() {}, nil
	}

	mp, reader := observe.NewProvider()
	shutdown := func() { _ = mp.Shutdown(context.Background()) }

	m, err := observe.NewMetrics(mp)
	if err != nil {
		shutdown()

		return nil, nil, nil, fmt.Errorf("create metrics: %w", err)
	}

	return m, reader, shutdown, nil
}
