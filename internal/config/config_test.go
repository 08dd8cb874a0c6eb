package config

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/pflag"

	apperrors "github.com/agbru/calcpatch/internal/errors"
)

func newFlagSet(c *AppConfig) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.AddFlags(fs)
	c.AddCallFlags(fs)
	return fs
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"unknown strategy", func(c *AppConfig) { c.Strategy = "hot" }},
		{"unknown log level", func(c *AppConfig) { c.LogLevel = "trace2" }},
		{"unknown log format", func(c *AppConfig) { c.LogFormat = "xml" }},
		{"zero concurrency", func(c *AppConfig) { c.Concurrency = 0 }},
		{"huge concurrency", func(c *AppConfig) { c.Concurrency = MaxConcurrency + 1 }},
		{"zero timeout", func(c *AppConfig) { c.Timeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			var configErr apperrors.ConfigError
			if !errors.As(err, &configErr) {
				t.Fatalf("Validate() = %v, want ConfigError", err)
			}
		})
	}
}

func TestResolve_Priority(t *testing.T) {
	t.Setenv("CALCPATCH_STRATEGY", "separate")
	t.Setenv("CALCPATCH_CONCURRENCY", "8")
	t.Setenv("CALCPATCH_TIMEOUT", "5s")
	t.Setenv("CALCPATCH_UNPATCHED", "yes")

	c := Default()
	fs := newFlagSet(&c)
	if err := fs.Parse([]string{"--strategy=combined"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Resolve(fs); err != nil {
		t.Fatalf("Resolve() = %v", err)
	}

	if c.Strategy != "combined" {
		t.Errorf("Strategy = %q, want flag value combined", c.Strategy)
	}
	if c.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want env value 8", c.Concurrency)
	}
	if c.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s, want 5s", c.Timeout)
	}
	if !c.Unpatched {
		t.Error("Unpatched = false, want true from env")
	}
}

func TestResolve_InvalidEnvIsIgnoredOrRejected(t *testing.T) {
	t.Setenv("CALCPATCH_CONCURRENCY", "many")
	t.Setenv("CALCPATCH_LOG_FORMAT", "xml")

	c := Default()
	fs := newFlagSet(&c)
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}
	err := c.Resolve(fs)
	if c.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, unparsable env must keep default", c.Concurrency)
	}
	if apperrors.ExitCode(err) != apperrors.ExitErrorConfig {
		t.Errorf("Resolve() = %v, want a config error for the log format", err)
	}
}

func TestResolve_UnregisteredFlagIgnored(t *testing.T) {
	t.Setenv("CALCPATCH_CONCURRENCY", "4")

	c := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.AddFlags(fs)
	if err := c.Resolve(fs); err != nil {
		t.Fatal(err)
	}
	if c.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want default when --concurrency is not a flag of the command", c.Concurrency)
	}
}

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		in   string
		def  bool
		want bool
	}{
		{"TRUE", false, true},
		{"1", false, true},
		{"no", true, false},
		{"0", true, false},
		{"maybe", true, true},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		if got := parseBoolEnv(tt.in, tt.def); got != tt.want {
			t.Errorf("parseBoolEnv(%q, %v) = %v, want %v", tt.in, tt.def, got, tt.want)
		}
	}
}

func TestPlatformRelease_Configured(t *testing.T) {
	c := Default()
	c.Release = "4.19.0"
	r, err := c.PlatformRelease()
	if err != nil || r != "4.19.0" {
		t.Fatalf("PlatformRelease() = %q, %v", r, err)
	}
}
