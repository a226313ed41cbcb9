// Package config loads argon.toml, the per-project settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"argon/internal/trace"
)

// FileName is the manifest name searched for from the working directory upward.
const FileName = "argon.toml"

// ErrEntryMissing is returned when [stage].entry is absent and no function
// name was given on the command line.
var ErrEntryMissing = errors.New("missing [stage].entry")

// Stage configures the transformer and the staging runtime.
type Stage struct {
	Entry          string   `toml:"entry"`
	Whitelist      []string `toml:"whitelist"`
	MaxDiagnostics int      `toml:"max_diagnostics"`
	MaxSteps       int64    `toml:"max_steps"`
}

// Trace configures the tracer; it mirrors trace.Config in string form.
type Trace struct {
	Level    string `toml:"level"`
	Mode     string `toml:"mode"`
	Output   string `toml:"output"`
	RingSize int    `toml:"ring_size"`
}

// Output configures how results are printed.
type Output struct {
	Format string `toml:"format"`
	Color  string `toml:"color"`
}

// Cache configures the on-disk capture cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Config is the decoded argon.toml.
type Config struct {
	Path   string `toml:"-"`
	Stage  Stage  `toml:"stage"`
	Trace  Trace  `toml:"trace"`
	Output Output `toml:"output"`
	Cache  Cache  `toml:"cache"`
}

// Default returns the settings used when no manifest exists.
func Default() *Config {
	return &Config{
		Stage:  Stage{MaxDiagnostics: 100},
		Trace:  Trace{Level: "off", Mode: "stream"},
		Output: Output{Format: "text", Color: "auto"},
	}
}

// Load decodes path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Find walks from startDir up to the filesystem root looking for FileName.
func Find(startDir string) (string, bool, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, err
	}
	for {
		candidate := filepath.Join(dir, FileName)
		info, err := os.Stat(candidate)
		switch {
		case err == nil && !info.IsDir():
			return candidate, true, nil
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return "", false, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Discover loads the nearest manifest above startDir, or the defaults.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("[trace].level: %w", err)
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		return fmt.Errorf("[trace].mode: %w", err)
	}
	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("[output].format %q (expected text|json|yaml)", c.Output.Format)
	}
	switch c.Output.Color {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("[output].color %q (expected auto|on|off)", c.Output.Color)
	}
	if c.Stage.MaxDiagnostics < 0 {
		return fmt.Errorf("[stage].max_diagnostics must not be negative")
	}
	if c.Stage.MaxSteps < 0 {
		return fmt.Errorf("[stage].max_steps must not be negative")
	}
	for _, name := range c.Stage.Whitelist {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("[stage].whitelist contains an empty name")
		}
	}
	return nil
}

// TraceConfig converts the [trace] table into a trace.Config.
func (c *Config) TraceConfig() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	return trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: c.Trace.Output,
		RingSize:   c.Trace.RingSize,
	}, nil
}

// EntryOr returns name when set, otherwise [stage].entry.
func (c *Config) EntryOr(name string) (string, error) {
	if name != "" {
		return name, nil
	}
	if c.Stage.Entry == "" {
		return "", ErrEntryMissing
	}
	return c.Stage.Entry, nil
}

// CacheDir resolves [cache].dir. A relative dir is taken from the manifest
// directory; an empty dir means $XDG_CACHE_HOME/argon.
func (c *Config) CacheDir() (string, error) {
	dir := strings.TrimSpace(c.Cache.Dir)
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			base = filepath.Join(home, ".cache")
		}
		return filepath.Join(base, "argon"), nil
	}
	if filepath.IsAbs(dir) || c.Path == "" {
		return dir, nil
	}
	return filepath.Join(filepath.Dir(c.Path), dir), nil
}
