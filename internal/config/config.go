// Package config holds the command line configuration of calcpatch.
//
// Values resolve with the priority: CLI flags > environment variables
// (prefixed with EnvPrefix) > defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	apperrors "github.com/agbru/calcpatch/internal/errors"
)

// EnvPrefix prefixes every environment variable read by calcpatch.
const EnvPrefix = "CALCPATCH_"

// Defaults.
const (
	DefaultStrategy    = "auto"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultConcurrency = 1
	DefaultTimeout     = 30 * time.Second
	MaxConcurrency     = 1024
)

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// Strategy selects the activation strategy: auto, combined or separate.
	Strategy string
	// Release is the platform release used by the auto strategy. Empty
	// means the running kernel's release.
	Release string
	// LogLevel is the minimum level logged (debug, info, warn, error).
	LogLevel string
	// LogFormat is json or console.
	LogFormat string
	// MetricsAddr, if set, is where `run` serves /metrics.
	MetricsAddr string
	// Concurrency is the number of concurrent invocations made by `call`.
	Concurrency int
	// Timeout bounds a single command.
	Timeout time.Duration
	// Unpatched makes `call` invoke the original functions.
	Unpatched bool
	// OutputFile, if set, receives the result of `call`.
	OutputFile string
	// Quiet prints only the decoded value of `call`.
	Quiet bool
	// NoColor disables styled output.
	NoColor bool
}

// Default returns the configuration used when nothing is set.
func Default() AppConfig {
	return AppConfig{
		Strategy:    DefaultStrategy,
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
		Concurrency: DefaultConcurrency,
		Timeout:     DefaultTimeout,
	}
}

// AddFlags registers the global flags on fs, bound to c.
func (c *AppConfig) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Strategy, "strategy", c.Strategy, "Activation strategy (auto, combined, separate)")
	fs.StringVar(&c.Release, "release", c.Release, "Platform release used by --strategy=auto (default: running kernel)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format (json, console)")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Serve Prometheus metrics on this address (e.g. :9090)")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "Maximum duration of a command")
	fs.BoolVar(&c.NoColor, "no-color", c.NoColor, "Disable colored output")
}

// AddCallFlags registers the flags of the call command on fs.
func (c *AppConfig) AddCallFlags(fs *pflag.FlagSet) {
	fs.IntVarP(&c.Concurrency, "concurrency", "j", c.Concurrency, "Number of concurrent invocations")
	fs.BoolVar(&c.Unpatched, "unpatched", c.Unpatched, "Call the original functions without enabling the patch")
	fs.StringVarP(&c.OutputFile, "output", "o", c.OutputFile, "Write the result to a file")
	fs.BoolVarP(&c.Quiet, "quiet", "q", c.Quiet, "Print only the value")
}

// Resolve applies environment overrides for flags not set on fs, then
// validates the result.
func (c *AppConfig) Resolve(fs *pflag.FlagSet) error {
	applyEnvOverrides(c, fs)
	return c.Validate()
}

// Validate checks the configuration for semantic errors.
func (c AppConfig) Validate() error {
	switch strings.ToLower(c.Strategy) {
	case "auto", "combined", "separate":
	default:
		return apperrors.NewConfigError("invalid strategy %q (want auto, combined or separate)", c.Strategy)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return apperrors.NewConfigError("invalid log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return apperrors.NewConfigError("invalid log format %q (want json or console)", c.LogFormat)
	}
	if c.Concurrency < 1 || c.Concurrency > MaxConcurrency {
		return apperrors.NewConfigError("concurrency must be between 1 and %d, got %d", MaxConcurrency, c.Concurrency)
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// PlatformRelease returns the configured release, falling back to the
// running kernel's.
func (c AppConfig) PlatformRelease() (string, error) {
	if c.Release != "" {
		return c.Release, nil
	}
	r, err := hostRelease()
	if err != nil || r == "" {
		return "", apperrors.NewConfigError("cannot determine platform release, set --release: %v", err)
	}
	return r, nil
}

func (c AppConfig) String() string {
	return fmt.Sprintf("strategy=%s release=%q log=%s/%s concurrency=%d timeout=%s",
		c.Strategy, c.Release, c.LogLevel, c.LogFormat, c.Concurrency, c.Timeout)
}
