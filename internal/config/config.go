package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/pelletier/go-toml"
	"hlsc/internal/ssa"
)

// Config holds the settings of the hlsc tools
type Config struct {
	Log    LogCfg
	SSA    SSACfg
	Driver DriverCfg
}

// LogCfg configures commonlog
type LogCfg struct {
	Verbosity int
	File      string // empty logs to stderr
}

// SSACfg configures the SSA transformer and the passes around it
type SSACfg struct {
	InputPrefix        string
	UnknownAsMergeable bool
	StrictUndefined    bool
	Verify             bool
}

// DriverCfg configures how scopes are scheduled
type DriverCfg struct {
	Jobs  int
	Color bool
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Log: LogCfg{Verbosity: 1},
		SSA: SSACfg{
			InputPrefix: ssa.DefaultInputPrefix,
			Verify:      true,
		},
		Driver: DriverCfg{
			Jobs:  runtime.NumCPU(),
			Color: true,
		},
	}
}

// Load reads a TOML configuration file on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML configuration text. Keys that are absent keep their
// default value.
func Parse(data []byte) (*Config, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	r := reader{tree: tree}
	cfg.Log.Verbosity = r.int("log.verbosity", cfg.Log.Verbosity)
	cfg.Log.File = r.string("log.file", cfg.Log.File)
	cfg.SSA.InputPrefix = r.string("ssa.input_prefix", cfg.SSA.InputPrefix)
	cfg.SSA.UnknownAsMergeable = r.bool("ssa.unknown_as_mergeable", cfg.SSA.UnknownAsMergeable)
	cfg.SSA.StrictUndefined = r.bool("ssa.strict_undefined", cfg.SSA.StrictUndefined)
	cfg.SSA.Verify = r.bool("ssa.verify", cfg.SSA.Verify)
	cfg.Driver.Jobs = r.int("driver.jobs", cfg.Driver.Jobs)
	cfg.Driver.Color = r.bool("driver.color", cfg.Driver.Color)
	if r.err != nil {
		return nil, r.err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component can work with
func (c *Config) Validate() error {
	if c.Driver.Jobs < 1 {
		return fmt.Errorf("driver.jobs must be at least 1, got %d", c.Driver.Jobs)
	}
	if c.Log.Verbosity < -4 || c.Log.Verbosity > 5 {
		return fmt.Errorf("log.verbosity must be between -4 and 5, got %d", c.Log.Verbosity)
	}
	return nil
}

// Policy returns the SSA exclusion policy described by the configuration
func (c *Config) Policy() ssa.Policy {
	return ssa.Policy{
		InputPrefix:        c.SSA.InputPrefix,
		UnknownAsMergeable: c.SSA.UnknownAsMergeable,
		StrictUndefined:    c.SSA.StrictUndefined,
	}
}

// Option is an option setter applied after the file is loaded, used for
// command-line overrides
type Option func(c *Config)

// ProcessOptions applies every option in order
func (c *Config) ProcessOptions(options ...Option) {
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
}

// OptionVerbosity overrides log.verbosity
func OptionVerbosity(v int) Option {
	return func(c *Config) { c.Log.Verbosity = v }
}

// OptionLogFile overrides log.file
func OptionLogFile(path string) Option {
	return func(c *Config) { c.Log.File = path }
}

// OptionJobs overrides driver.jobs
func OptionJobs(n int) Option {
	return func(c *Config) { c.Driver.Jobs = n }
}

// OptionColor overrides driver.color
func OptionColor(enabled bool) Option {
	return func(c *Config) { c.Driver.Color = enabled }
}

// OptionStrictUndefined overrides ssa.strict_undefined
func OptionStrictUndefined(strict bool) Option {
	return func(c *Config) { c.SSA.StrictUndefined = strict }
}

// reader pulls typed values out of a TOML tree and keeps the first type error
type reader struct {
	tree *toml.Tree
	err  error
}

func (r *reader) int(key string, def int) int {
	switch v := r.tree.GetDefault(key, int64(def)).(type) {
	case int64:
		return int(v)
	default:
		r.fail(key, "an integer", v)
		return def
	}
}

func (r *reader) string(key, def string) string {
	v, ok := r.tree.GetDefault(key, def).(string)
	if !ok {
		r.fail(key, "a string", r.tree.Get(key))
		return def
	}
	return v
}

func (r *reader) bool(key string, def bool) bool {
	v, ok := r.tree.GetDefault(key, def).(bool)
	if !ok {
		r.fail(key, "a boolean", r.tree.Get(key))
		return def
	}
	return v
}

func (r *reader) fail(key, want string, got interface{}) {
	if r.err == nil {
		r.err = fmt.Errorf("%s must be %s, got %T", key, want, got)
	}
}
