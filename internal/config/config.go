// Package config loads checker settings from a YAML file and SKEIN_*
// environment variables and validates them against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/skein/internal/model"
	"github.com/roach88/skein/internal/rt"
)

//go:embed schema.cue
var schemaCUE string

// Config holds the settings a check runs with. Zero-valued optional fields
// mean "no limit" or "not set".
type Config struct {
	MaxThreads         int      `yaml:"max_threads" json:"max_threads"`
	MaxBranches        int      `yaml:"max_branches" json:"max_branches"`
	MaxPermutations    int      `yaml:"max_permutations" json:"max_permutations,omitempty"`
	MaxDuration        Duration `yaml:"max_duration" json:"max_duration,omitempty"`
	PreemptionBound    int      `yaml:"preemption_bound" json:"preemption_bound"`
	CheckpointFile     string   `yaml:"checkpoint_file" json:"checkpoint_file,omitempty"`
	CheckpointInterval int      `yaml:"checkpoint_interval" json:"checkpoint_interval"`

	// DB is the SQLite file for checkpoints and run history.
	DB string `yaml:"db" json:"db,omitempty"`

	// Log enables per-decision debug logging.
	Log bool `yaml:"log" json:"log,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		MaxThreads:         model.DefaultMaxThreads,
		MaxBranches:        model.DefaultMaxBranches,
		PreemptionBound:    rt.Unbounded,
		CheckpointInterval: model.DefaultCheckpointInterval,
	}
}

// Load reads the YAML file at path over the defaults. Unknown keys are
// rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Environment variables read by ApplyEnv.
const (
	EnvMaxThreads         = "SKEIN_MAX_THREADS"
	EnvMaxBranches        = "SKEIN_MAX_BRANCHES"
	EnvMaxPermutations    = "SKEIN_MAX_PERMUTATIONS"
	EnvMaxDuration        = "SKEIN_MAX_DURATION"
	EnvMaxPreemptions     = "SKEIN_MAX_PREEMPTIONS"
	EnvCheckpointFile     = "SKEIN_CHECKPOINT_FILE"
	EnvCheckpointInterval = "SKEIN_CHECKPOINT_INTERVAL"
	EnvLog                = "SKEIN_LOG"
)

// ApplyEnv overlays the SKEIN_* variables found by lookup, typically
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	ints := []struct {
		name string
		dst  *int
	}{
		{EnvMaxThreads, &c.MaxThreads},
		{EnvMaxBranches, &c.MaxBranches},
		{EnvMaxPermutations, &c.MaxPermutations},
		{EnvMaxPreemptions, &c.PreemptionBound},
		{EnvCheckpointInterval, &c.CheckpointInterval},
	}
	for _, v := range ints {
		s, ok := lookup(v.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", v.name, s)
		}
		*v.dst = n
	}

	if s, ok := lookup(EnvMaxDuration); ok {
		d, err := ParseDuration(s)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxDuration, err)
		}
		c.MaxDuration = d
	}
	if s, ok := lookup(EnvCheckpointFile); ok {
		c.CheckpointFile = s
	}
	if s, ok := lookup(EnvLog); ok {
		enabled, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("%s: %q is not a boolean", EnvLog, s)
		}
		c.Log = enabled
	}
	return nil
}

// Validate checks c against the CUE schema.
func (c Config) Validate() error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	value := ctx.CompileBytes(data)
	if err := value.Err(); err != nil {
		return fmt.Errorf("compile config: %w", err)
	}
	if err := schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Resolve loads path (if not empty), applies the environment and validates
// the result.
func Resolve(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Builder returns a model.Builder carrying the settings of c.
func (c Config) Builder() *model.Builder {
	b := model.NewBuilder()
	b.MaxThreads = c.MaxThreads
	b.MaxBranches = c.MaxBranches
	b.MaxPermutations = c.MaxPermutations
	b.MaxDuration = time.Duration(c.MaxDuration)
	b.PreemptionBound = c.PreemptionBound
	b.CheckpointFile = c.CheckpointFile
	b.CheckpointInterval = c.CheckpointInterval
	b.Log = c.Log
	return b
}
