package model

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/skein/internal/checkpoint"
	"github.com/roach88/skein/internal/rt"
)

const (
	DefaultMaxThreads         = 4
	DefaultMaxBranches        = 1000
	DefaultCheckpointInterval = 20000
)

// Func is a model: it runs as thread 0 and drives the primitives of s.
type Func func(s *rt.Scheduler)

// Checkpointer persists the exploration Path between runs of a search.
type Checkpointer interface {
	// Load returns the saved path and whether one exists.
	Load(ctx context.Context) (rt.PathSnapshot, bool, error)

	// Save stores snap, positioned at the start of the given iteration.
	Save(ctx context.Context, snap rt.PathSnapshot, iteration int) error
}

// Builder configures and runs a check. The zero value is not usable; start
// from NewBuilder.
type Builder struct {
	// MaxThreads bounds the threads a model may have alive, including the
	// main thread. It is also the width of every vector clock.
	MaxThreads int

	// MaxBranches bounds the decisions a single run may record.
	MaxBranches int

	// MaxPermutations stops the search after that many runs. Zero means no
	// limit.
	MaxPermutations int

	// MaxDuration stops the search once it has run that long. Zero means no
	// limit.
	MaxDuration time.Duration

	// PreemptionBound caps preemptions per run; rt.Unbounded disables it.
	PreemptionBound int

	// CheckpointFile, when set and Checkpointer is nil, keeps the Path in a
	// JSON file.
	CheckpointFile string

	// CheckpointInterval is how many runs pass between checkpoints and
	// progress logs.
	CheckpointInterval int

	Checkpointer Checkpointer

	// Log enables per-decision debug logging.
	Log bool

	Logger *slog.Logger
	RunIDs RunIDGenerator
}

// NewBuilder returns a Builder with the default bounds.
func NewBuilder() *Builder {
	return &Builder{
		MaxThreads:         DefaultMaxThreads,
		MaxBranches:        DefaultMaxBranches,
		PreemptionBound:    rt.Unbounded,
		CheckpointInterval: DefaultCheckpointInterval,
	}
}

// Validate reports configuration errors.
func (b *Builder) Validate() error {
	switch {
	case b.MaxThreads < 1:
		return fmt.Errorf("max threads must be at least 1, got %d", b.MaxThreads)
	case b.MaxBranches < 1:
		return fmt.Errorf("max branches must be at least 1, got %d", b.MaxBranches)
	case b.MaxPermutations < 0:
		return fmt.Errorf("max permutations must not be negative, got %d", b.MaxPermutations)
	case b.MaxDuration < 0:
		return fmt.Errorf("max duration must not be negative, got %s", b.MaxDuration)
	case b.PreemptionBound < rt.Unbounded:
		return fmt.Errorf("preemption bound must be %d (unbounded) or more, got %d", rt.Unbounded, b.PreemptionBound)
	case b.CheckpointInterval < 1:
		return fmt.Errorf("checkpoint interval must be at least 1, got %d", b.CheckpointInterval)
	}
	return nil
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func (b *Builder) runID() string {
	if b.RunIDs != nil {
		return b.RunIDs.Generate()
	}
	return UUIDv7Generator{}.Generate()
}

func (b *Builder) checkpointer() Checkpointer {
	if b.Checkpointer != nil {
		return b.Checkpointer
	}
	if b.CheckpointFile != "" {
		return checkpoint.NewFile(b.CheckpointFile)
	}
	return nil
}

func (b *Builder) newExecution(path *rt.Path, arena *rt.Arena, logger *slog.Logger) *rt.Execution {
	return rt.NewExecution(b.MaxThreads, path, arena,
		rt.WithLogger(logger),
		rt.WithDecisionLog(b.Log),
	)
}
