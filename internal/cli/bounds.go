package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/skein/internal/config"
)

// BoundsOptions holds the exploration flags shared by check and replay.
// A flag overrides the config file and SKEIN_* variables only when set.
type BoundsOptions struct {
	ConfigFile         string
	Database           string
	CheckpointFile     string
	MaxThreads         int
	MaxBranches        int
	MaxPermutations    int
	MaxDuration        string
	PreemptionBound    int
	CheckpointInterval int
}

func (b *BoundsOptions) register(cmd *cobra.Command) {
	defaults := config.Default()
	f := cmd.Flags()
	f.StringVar(&b.ConfigFile, "config", "", "path to YAML config file")
	f.StringVar(&b.Database, "db", "", "path to SQLite database for checkpoints and run history")
	f.StringVar(&b.CheckpointFile, "checkpoint", "", "path to JSON checkpoint file")
	f.IntVar(&b.MaxThreads, "max-threads", defaults.MaxThreads, "maximum threads per model, including the main thread")
	f.IntVar(&b.MaxBranches, "max-branches", defaults.MaxBranches, "maximum decisions per execution")
	f.IntVar(&b.MaxPermutations, "max-permutations", 0, "stop after this many executions (0 = no limit)")
	f.StringVar(&b.MaxDuration, "max-duration", "", "stop after this long (Go duration or seconds)")
	f.IntVar(&b.PreemptionBound, "preemption-bound", defaults.PreemptionBound, "maximum preemptions per execution (-1 = unbounded)")
	f.IntVar(&b.CheckpointInterval, "checkpoint-interval", defaults.CheckpointInterval, "executions between checkpoints")
}

// resolve layers defaults, the config file, the environment and set flags,
// then validates the result.
func (b *BoundsOptions) resolve(cmd *cobra.Command, lookup func(string) (string, bool)) (config.Config, error) {
	cfg := config.Default()
	if b.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(b.ConfigFile); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return cfg, err
	}

	f := cmd.Flags()
	if f.Changed("db") {
		cfg.DB = b.Database
	}
	if f.Changed("checkpoint") {
		cfg.CheckpointFile = b.CheckpointFile
	}
	if f.Changed("max-threads") {
		cfg.MaxThreads = b.MaxThreads
	}
	if f.Changed("max-branches") {
		cfg.MaxBranches = b.MaxBranches
	}
	if f.Changed("max-permutations") {
		cfg.MaxPermutations = b.MaxPermutations
	}
	if f.Changed("max-duration") {
		d, err := config.ParseDuration(b.MaxDuration)
		if err != nil {
			return cfg, fmt.Errorf("--max-duration: %w", err)
		}
		cfg.MaxDuration = d
	}
	if f.Changed("preemption-bound") {
		cfg.PreemptionBound = b.PreemptionBound
	}
	if f.Changed("checkpoint-interval") {
		cfg.CheckpointInterval = b.CheckpointInterval
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
