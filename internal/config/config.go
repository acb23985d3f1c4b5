// Package config loads envrt.toml, the optional configuration file of the
// envrt CLI. Keys left out of the file keep their defaults, and command-line
// flags override both.
//
//	format   = "json"          # text | json
//	verbose  = true
//	journal  = "./envrt.db"    # default --journal for clear and scenario
//	env_id   = "dev-1"         # default --env-id for clear
//	trace    = false           # disable the clear trace router
//	parallel = 4               # scenarios run concurrently
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the resolved CLI configuration.
type Config struct {
	Format   string
	Verbose  bool
	Journal  string
	EnvID    string
	NoTrace  bool
	Parallel int
}

type fileConfig struct {
	Format   string `toml:"format"`
	Verbose  bool   `toml:"verbose"`
	Journal  string `toml:"journal"`
	EnvID    string `toml:"env_id"`
	Trace    bool   `toml:"trace"`
	Parallel int    `toml:"parallel"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Format:   "text",
		Parallel: 1,
	}
}

// Load reads path on top of Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if meta.IsDefined("format") {
		cfg.Format = strings.TrimSpace(raw.Format)
	}
	if meta.IsDefined("verbose") {
		cfg.Verbose = raw.Verbose
	}
	if meta.IsDefined("journal") {
		cfg.Journal = strings.TrimSpace(raw.Journal)
	}
	if meta.IsDefined("env_id") {
		cfg.EnvID = strings.TrimSpace(raw.EnvID)
	}
	if meta.IsDefined("trace") {
		cfg.NoTrace = !raw.Trace
	}
	if meta.IsDefined("parallel") {
		cfg.Parallel = raw.Parallel
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if !slices.Contains([]string{"text", "json"}, c.Format) {
		return fmt.Errorf("invalid format %q: must be text or json", c.Format)
	}
	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be at least 1, got %d", c.Parallel)
	}
	return nil
}
