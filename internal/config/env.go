package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// envOverride maps an env key (without the CALCPATCH_ prefix) to the flag it
// stands in for and a function applying the value.
type envOverride struct {
	envKey string
	flag   string
	apply  func(*AppConfig, string)
}

var envOverrides = []envOverride{
	{"CONCURRENCY", "concurrency", func(c *AppConfig, v string) {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.Concurrency = parsed
		}
	}},
	{"TIMEOUT", "timeout", func(c *AppConfig, v string) {
		if parsed, err := time.ParseDuration(v); err == nil {
			c.Timeout = parsed
		}
	}},

	{"STRATEGY", "strategy", func(c *AppConfig, v string) { c.Strategy = v }},
	{"RELEASE", "release", func(c *AppConfig, v string) { c.Release = v }},
	{"LOG_LEVEL", "log-level", func(c *AppConfig, v string) { c.LogLevel = v }},
	{"LOG_FORMAT", "log-format", func(c *AppConfig, v string) { c.LogFormat = v }},
	{"METRICS_ADDR", "metrics-addr", func(c *AppConfig, v string) { c.MetricsAddr = v }},
	{"OUTPUT", "output", func(c *AppConfig, v string) { c.OutputFile = v }},

	{"UNPATCHED", "unpatched", func(c *AppConfig, v string) {
		c.Unpatched = parseBoolEnv(v, c.Unpatched)
	}},
	{"QUIET", "quiet", func(c *AppConfig, v string) {
		c.Quiet = parseBoolEnv(v, c.Quiet)
	}},
	{"NO_COLOR", "no-color", func(c *AppConfig, v string) {
		c.NoColor = parseBoolEnv(v, c.NoColor)
	}},
}

// parseBoolEnv accepts "true", "1", "yes" as true and "false", "0", "no"
// as false (case-insensitive). Anything else returns defaultVal.
func parseBoolEnv(val string, defaultVal bool) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

// applyEnvOverrides applies environment values for every flag not set
// explicitly on fs. Overrides whose flag is not registered on fs are
// ignored.
func applyEnvOverrides(c *AppConfig, fs *pflag.FlagSet) {
	for _, o := range envOverrides {
		if fs.Lookup(o.flag) == nil || fs.Changed(o.flag) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			o.apply(c, val)
		}
	}
}
