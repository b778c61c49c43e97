// Package config resolves benchmark settings from command-line flags,
// VADBENCH_* environment variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/weiihann/vadbench/engine"
	"github.com/weiihann/vadbench/errorsx"
)

// EnvPrefix is prepended to every environment variable lookup, so
// access_key is read from VADBENCH_ACCESS_KEY.
const EnvPrefix = "VADBENCH"

// FileFlag names the flag holding an optional YAML or JSON config file.
const FileFlag = "config"

// ErrMissing is returned by Validate when a required value is unset.
var ErrMissing = errors.New("missing required argument")

// Config is the resolved run configuration.
type Config struct {
	LibraryPath string  `mapstructure:"library_path"`
	AccessKey   string  `mapstructure:"access_key"`
	WAVPath     string  `mapstructure:"wav_path"`
	Engine      string  `mapstructure:"engine"`
	ModelPath   string  `mapstructure:"model_path"`
	WebRTCMode  int     `mapstructure:"webrtc_mode"`
	Threshold   float64 `mapstructure:"threshold"`
	JSON        bool    `mapstructure:"json"`
	Metrics     bool    `mapstructure:"metrics"`
	LogLevel    string  `mapstructure:"log_level"`
}

// Flag describes one configuration option. Default also fixes the flag's
// type: string, int, float64 or bool.
type Flag struct {
	Name      string
	Shorthand string
	Usage     string
	Default   any
	// RequiredFor lists the engines that cannot run without this value.
	RequiredFor []string
}

// Flags is the schema of every benchmark option.
var Flags = []Flag{
	{
		Name: "library_path", Shorthand: "l", Default: "",
		Usage:       "Absolute path to the engine's dynamic library",
		RequiredFor: []string{engine.EngineCobra},
	},
	{
		Name: "access_key", Shorthand: "a", Default: "",
		Usage:       "Credential passed to the engine at init",
		RequiredFor: []string{engine.EngineCobra},
	},
	{
		Name: "wav_path", Shorthand: "w", Default: "",
		Usage:       "Path to a mono 16-bit PCM WAV file",
		RequiredFor: engine.Names(),
	},
	{
		Name: "engine", Default: engine.EngineCobra,
		Usage: "Engine to benchmark: " + strings.Join(engine.Names(), ", "),
	},
	{
		Name: "model_path", Default: "",
		Usage:       "Path to the Silero ONNX model",
		RequiredFor: []string{engine.EngineSilero},
	},
	{
		Name: "webrtc_mode", Default: 3,
		Usage: "WebRTC aggressiveness mode (0-3)",
	},
	{
		Name: "threshold", Default: 0.5,
		Usage: "Silero speech probability threshold (0-1)",
	},
	{
		Name: "json", Default: false,
		Usage: "Output the result as JSON",
	},
	{
		Name: "metrics", Default: false,
		Usage: "Collect and print per-frame latency statistics",
	},
	{
		Name: "log_level", Default: "warn",
		Usage: "Log level: debug, info, warn, error",
	},
}

// Register declares every schema flag and the config file flag on fs.
func Register(fs *pflag.FlagSet) {
	for _, f := range Flags {
		switch def := f.Default.(type) {
		case string:
			fs.StringP(f.Name, f.Shorthand, def, f.Usage)
		case int:
			fs.IntP(f.Name, f.Shorthand, def, f.Usage)
		case float64:
			fs.Float64P(f.Name, f.Shorthand, def, f.Usage)
		case bool:
			fs.BoolP(f.Name, f.Shorthand, def, f.Usage)
		default:
			panic(fmt.Sprintf("config: unsupported default %T for %s", def, f.Name))
		}
	}

	fs.String(FileFlag, "", "Optional YAML or JSON config file")
}

// Load resolves a Config from parsed flags. Explicitly set flags win over
// environment variables, which win over the config file, which wins over
// flag defaults.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()

	for _, f := range Flags {
		if err := v.BindPFlag(f.Name, fs.Lookup(f.Name)); err != nil {
			return Config{}, configError("bind flag %s: %w", f.Name, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path, _ := fs.GetString(FileFlag); path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return Config{}, configError("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, configError("unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the selected engine is known, that every value it
// requires is set, and that numeric options are in range. Missing values
// are reported together and match ErrMissing.
func (c Config) Validate() error {
	name := c.EngineName()
	if !slices.Contains(engine.Names(), name) {
		return configError(
			"unknown engine %q, want one of %s",
			name, strings.Join(engine.Names(), ", "),
		)
	}

	var missing []string

	for _, f := range Flags {
		if slices.Contains(f.RequiredFor, name) && c.value(f.Name) == "" {
			missing = append(missing, f.Name)
		}
	}

	if len(missing) > 0 {
		return configError("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}

	if c.WebRTCMode < 0 || c.WebRTCMode > 3 {
		return configError("webrtc_mode must be within 0..3, got %d", c.WebRTCMode)
	}

	if c.Threshold < 0 || c.Threshold > 1 {
		return configError("threshold must be within 0..1, got %g", c.Threshold)
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	return nil
}

// EngineName returns the selected engine, defaulting to cobra.
func (c Config) EngineName() string {
	if c.Engine == "" {
		return engine.EngineCobra
	}

	return strings.ToLower(c.Engine)
}

// EngineOptions maps the configuration onto engine.Open's options.
func (c Config) EngineOptions() engine.Options {
	return engine.Options{
		Engine:      c.EngineName(),
		LibraryPath: c.LibraryPath,
		ModelPath:   c.ModelPath,
		WebRTCMode:  c.WebRTCMode,
		Threshold:   c.Threshold,
	}
}

// Level parses LogLevel. An empty level means warn.
func (c Config) Level() (slog.Level, error) {
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, configError("invalid log_level %q: %w", c.LogLevel, err)
	}

	return level, nil
}

func (c Config) value(name string) string {
	switch name {
	case "library_path":
		return c.LibraryPath
	case "access_key":
		return c.AccessKey
	case "wav_path":
		return c.WAVPath
	case "model_path":
		return c.ModelPath
	default:
		return ""
	}
}

func configError(format string, args ...any) error {
	return errorsx.Wrap(fmt.Errorf(format, args...), errorsx.KindConfig)
}
